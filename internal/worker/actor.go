package worker

import (
	"encoding/json"
	"log"
	"math"
	"math/rand"

	"distributed-actor-learner/internal/core"
	"distributed-actor-learner/internal/variable"
)

// Actor is the policy-evaluation side of a rollout worker: it selects
// actions with the current linear softmax policy, forwards every transition
// through its adder, and refreshes weights from the variable client on the
// client's own schedule. Acting on a stale version is expected; a failed or
// malformed refresh keeps the previous policy.
type Actor struct {
	policy    *Policy
	adder     core.Adder
	variables *variable.Client
	rng       *rand.Rand

	lastVersion uint64
	lastLogProb float64
	lastValue   float64
}

// NewActor builds an actor. variables may be nil for a fixed policy.
func NewActor(policy *Policy, adder core.Adder, variables *variable.Client, rng *rand.Rand) *Actor {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Actor{policy: policy, adder: adder, variables: variables, rng: rng}
}

func (a *Actor) SelectAction(observation []float64) (int, error) {
	a.refreshWeights()

	probs, value, err := a.policy.Evaluate(observation)
	if err != nil {
		return 0, err
	}
	choice := sampleCategorical(probs, a.rng)
	a.lastLogProb = math.Log(probs[choice] + 1e-8)
	a.lastValue = value
	return choice, nil
}

func (a *Actor) ObserveFirst(ts core.Timestep) error {
	if a.adder == nil {
		return nil
	}
	return a.adder.AddFirst(ts)
}

func (a *Actor) Observe(action int, next core.Timestep) error {
	if a.adder == nil {
		return nil
	}
	return a.adder.Add(action, next, map[string]float64{
		"log_prob": a.lastLogProb,
		"value":    a.lastValue,
	})
}

// Update is the local-learning hook; this actor learns only through
// published weights, so it is a no-op.
func (a *Actor) Update() error { return nil }

func (a *Actor) refreshWeights() {
	if a.variables == nil {
		return
	}
	version, payload := a.variables.Params()
	if version == a.lastVersion || payload == nil {
		return
	}
	var weights Weights
	if err := json.Unmarshal(payload, &weights); err != nil {
		log.Printf("policy decode failed, keeping version %d: %v", a.lastVersion, err)
		return
	}
	policy, err := NewPolicy(weights)
	if err != nil {
		log.Printf("policy rebuild failed, keeping version %d: %v", a.lastVersion, err)
		return
	}
	a.policy = policy
	a.lastVersion = version
}
