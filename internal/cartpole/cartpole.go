// Package cartpole is the reference environment for the harness: the
// classic pole-balancing task with two discrete actions (push left, push
// right), exposed through the shared Timestep contract.
package cartpole

import (
	"fmt"
	"math"
	"math/rand"

	"distributed-actor-learner/internal/core"
)

const (
	gravity        = 9.81
	massCart       = 1.0
	massPole       = 0.1
	length         = 0.5
	totalMass      = massCart + massPole
	poleMassLength = massPole * length
	forceMax       = 10.0
	tau            = 0.02

	xThreshold     = 2.4
	thetaThreshold = 12.0 * math.Pi / 180.0
	maxSteps       = 500
)

type State struct {
	X        float64 `json:"x"`
	XDot     float64 `json:"x_dot"`
	Theta    float64 `json:"theta"`
	ThetaDot float64 `json:"theta_dot"`
}

type Env struct {
	State State
	Steps int
	Rand  *rand.Rand
}

func NewEnv(rng *rand.Rand) *Env {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Env{Rand: rng}
}

// Reset starts a new episode near the unstable equilibrium.
func (e *Env) Reset() (core.Timestep, error) {
	e.State = State{
		X:        e.Rand.Float64()*0.1 - 0.05,
		XDot:     e.Rand.Float64()*0.1 - 0.05,
		Theta:    e.Rand.Float64()*0.1 - 0.05,
		ThetaDot: e.Rand.Float64()*0.1 - 0.05,
	}
	e.Steps = 0
	return core.Timestep{
		StepType:    core.StepFirst,
		Discount:    1,
		Observation: e.observation(),
	}, nil
}

// Step applies one push. The episode ends when the cart leaves the track or
// the pole falls (discount 0) or after the step cap (truncation, discount 1).
func (e *Env) Step(action int) (core.Timestep, error) {
	if action != 0 && action != 1 {
		return core.Timestep{}, fmt.Errorf("cartpole: invalid action %d", action)
	}

	force := forceMax
	if action == 0 {
		force = -forceMax
	}

	x := e.State.X
	xDot := e.State.XDot
	theta := e.State.Theta
	thetaDot := e.State.ThetaDot

	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)

	temp := (force + poleMassLength*thetaDot*thetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) / (length * (4.0/3.0 - massPole*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass
	x += tau * xDot
	xDot += tau * xAcc
	theta += tau * thetaDot
	thetaDot += tau * thetaAcc

	e.State = State{
		X:        x,
		XDot:     xDot,
		Theta:    theta,
		ThetaDot: thetaDot,
	}
	e.Steps++

	fell := x < -xThreshold || x > xThreshold || theta < -thetaThreshold || theta > thetaThreshold
	truncated := e.Steps >= maxSteps

	ts := core.Timestep{
		StepType:    core.StepMid,
		Reward:      core.ScalarReward(1),
		Discount:    1,
		Observation: e.observation(),
	}
	if fell {
		ts.StepType = core.StepLast
		ts.Reward = core.ScalarReward(0)
		ts.Discount = 0
	} else if truncated {
		ts.StepType = core.StepLast
	}
	return ts, nil
}

func (e *Env) observation() []float64 {
	return []float64{e.State.X, e.State.XDot, e.State.Theta, e.State.ThetaDot}
}

func MaxSteps() int {
	return maxSteps
}
