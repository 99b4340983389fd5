// Package core holds the contracts shared by the actor and learner sides of
// the training harness: timesteps, transitions, structured rewards, and the
// interfaces each process depends on. Nothing in here knows about HTTP, the
// replay table internals, or any concrete environment.
package core

import "context"

// StepType marks a timestep's position within an episode.
type StepType int

const (
	StepFirst StepType = iota
	StepMid
	StepLast
)

// Timestep is the environment's output for a single interaction: the
// observation the agent acts on next, plus the reward and discount earned by
// the action that produced it. The first timestep of an episode carries no
// meaningful reward.
type Timestep struct {
	StepType    StepType  `json:"step_type"`
	Reward      Reward    `json:"reward"`
	Discount    float64   `json:"discount"`
	Observation []float64 `json:"observation"`
}

func (t Timestep) First() bool { return t.StepType == StepFirst }
func (t Timestep) Mid() bool   { return t.StepType == StepMid }
func (t Timestep) Last() bool  { return t.StepType == StepLast }

// Transition is one environment step flattened into the record stored by the
// replay table. Immutable once built.
type Transition struct {
	Observation     []float64          `json:"observation"`
	Action          int                `json:"action"`
	Reward          Reward             `json:"reward"`
	Discount        float64            `json:"discount"`
	NextObservation []float64          `json:"next_observation"`
	Extras          map[string]float64 `json:"extras,omitempty"`
}

// Environment is a discrete-action environment. Step returns the timestep
// produced by applying the action; a Last timestep ends the episode.
type Environment interface {
	Reset() (Timestep, error)
	Step(action int) (Timestep, error)
}

// Actor selects actions and forwards experience downstream. ObserveFirst and
// Observe are where transitions are handed to whatever writer the actor was
// built with; Update is the optional local-learning hook invoked once per
// step when enabled.
type Actor interface {
	SelectAction(observation []float64) (int, error)
	ObserveFirst(ts Timestep) error
	Observe(action int, next Timestep) error
	Update() error
}

// Adder assembles consecutive timesteps into Transitions and writes them to
// a buffer. AddFirst must be called once per episode before Add.
type Adder interface {
	AddFirst(ts Timestep) error
	Add(action int, next Timestep, extras map[string]float64) error
}

// Observer contributes extra per-episode metrics to the environment loop.
type Observer interface {
	ObserveFirst(env Environment, ts Timestep)
	Observe(env Environment, ts Timestep, action int)
	Metrics() map[string]any
}

// Learner consumes one sampled batch per Step call. Internals are out of
// this module's scope; the harness only drives the loop.
type Learner interface {
	Step(ctx context.Context) error
}

// VariableSource serves the latest published policy parameters as an opaque
// versioned blob. Versions are monotonically increasing.
type VariableSource interface {
	Params() (version uint64, payload []byte, err error)
}
