package worker

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"distributed-actor-learner/internal/cartpole"
	"distributed-actor-learner/internal/counting"
	"distributed-actor-learner/internal/envloop"
	"distributed-actor-learner/internal/loggers"
	"distributed-actor-learner/internal/variable"
)

// Runner wires one rollout worker: a cartpole environment driven by the
// environment loop, writing episodes to the replay service and pulling
// policy weights from the trainer. Exactly one of NumEpisodes/NumSteps may
// be set; both zero runs until the context stops.
type Runner struct {
	WorkerID      string
	BufferURL     string
	TrainerURL    string
	NumEpisodes   int
	NumSteps      int
	PolicyRefresh time.Duration
	Seed          int64
	Backoff       time.Duration
	Client        *http.Client
}

// Run drives the environment loop and returns the total steps executed.
func (r *Runner) Run(ctx context.Context) (int, error) {
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	rng := rand.New(rand.NewSource(r.Seed))
	env := cartpole.NewEnv(rng)

	policy, err := NewPolicy(DefaultWeights())
	if err != nil {
		return 0, err
	}

	var variables *variable.Client
	if r.TrainerURL != "" {
		refresh := r.PolicyRefresh
		if refresh <= 0 {
			refresh = 5 * time.Second
		}
		variables = variable.NewClient(&HTTPVariableSource{
			Client:     client,
			TrainerURL: r.TrainerURL,
		}, refresh)
	}

	adder := &HTTPAdder{
		Client:   client,
		BaseURL:  r.BufferURL,
		WorkerID: r.WorkerID,
		Backoff:  r.Backoff,
	}

	loop := &envloop.Loop{
		Env:     env,
		Actor:   NewActor(policy, adder, variables, rng),
		Counter: counting.New(nil, ""),
		Logger:  loggers.NewStandard("rollout_worker"),
	}
	return loop.Run(ctx, r.NumEpisodes, r.NumSteps)
}
