package harness

import (
	"context"
	"errors"
	"sync"
	"time"

	"distributed-actor-learner/internal/core"
	"distributed-actor-learner/internal/counting"
	"distributed-actor-learner/internal/envloop"
	"distributed-actor-learner/internal/loggers"
	"distributed-actor-learner/internal/replay"
	"distributed-actor-learner/internal/variable"
)

// ActorFactory builds the actor for a run. The adder writes to the run's
// table; variables serves the learner's published parameters.
type ActorFactory func(adder core.Adder, variables *variable.Client) (core.Actor, error)

// LearnerFactory builds the learner from its batch feed and the publisher it
// pushes parameter versions through. A nil factory runs actor-only.
type LearnerFactory func(dataset *replay.Dataset, publisher *variable.Publisher) (core.Learner, error)

// Harness is a fully wired in-process pipeline.
type Harness struct {
	Table     *replay.Table
	Loop      *envloop.Loop
	Publisher *variable.Publisher

	cfg     Config
	learner core.Learner
}

// New validates cfg and assembles the pipeline. Configuration errors are
// returned before any component exists.
func New(cfg Config, env core.Environment, newActor ActorFactory, newLearner LearnerFactory,
	logger loggers.Logger, counter *counting.Counter) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	table, err := cfg.NewTable()
	if err != nil {
		return nil, err
	}

	publisher := variable.NewPublisher()
	variables := variable.NewClient(publisher, time.Second)

	actor, err := newActor(replay.NewAdder(table, 0), variables)
	if err != nil {
		return nil, err
	}

	var learner core.Learner
	if newLearner != nil {
		learner, err = newLearner(replay.NewDataset(table, cfg.BatchSize, cfg.SampleTimeout), publisher)
		if err != nil {
			return nil, err
		}
	}

	if counter == nil {
		counter = counting.New(nil, "")
	}
	loop := &envloop.Loop{
		Env:          env,
		Actor:        actor,
		Counter:      counter,
		Logger:       logger,
		ShouldUpdate: cfg.ShouldUpdate,
	}

	return &Harness{
		Table:     table,
		Loop:      loop,
		Publisher: publisher,
		cfg:       cfg,
		learner:   learner,
	}, nil
}

// Run drives the environment loop in the calling goroutine and, when a
// learner is configured, its step loop in a second one. The two communicate
// only through the table and the publisher. Teardown closes the table so a
// blocked learner wakes, then waits for it. Returns the total environment
// steps executed.
func (h *Harness) Run(ctx context.Context) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg         sync.WaitGroup
		learnerErr error
	)
	if h.learner != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				err := h.learner.Step(ctx)
				switch {
				case err == nil:
				case errors.Is(err, replay.ErrTimeout):
					// Admission pushed back; try again.
				case errors.Is(err, replay.ErrTableClosed), errors.Is(err, context.Canceled):
					return
				default:
					learnerErr = err
					cancel()
					return
				}
			}
		}()
	}

	steps, loopErr := h.Loop.Run(ctx, h.cfg.NumEpisodes, h.cfg.NumSteps)

	cancel()
	h.Table.Close()
	wg.Wait()

	if loopErr != nil {
		return steps, loopErr
	}
	return steps, learnerErr
}
