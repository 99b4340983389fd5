// Package envloop drives the agent/environment interaction: it runs
// episodes, feeds transitions to the actor's writer, and emits per-episode
// telemetry. This is the actor-side half of the harness; the learner only
// ever sees what the actor wrote to the replay table.
package envloop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gonum.org/v1/gonum/stat"

	"distributed-actor-learner/internal/core"
	"distributed-actor-learner/internal/counting"
	"distributed-actor-learner/internal/loggers"
)

// ErrBothStopConditions is returned by Run when both numEpisodes and
// numSteps are set. Exactly one may be given; both zero runs until the
// context stops.
var ErrBothStopConditions = errors.New("envloop: num episodes and num steps are mutually exclusive")

// Loop couples one environment with one actor. Episode execution is
// strictly sequential; run several Loops, each with its own adder handle to
// the shared table, to scale out actors.
type Loop struct {
	Env          core.Environment
	Actor        core.Actor
	Counter      *counting.Counter
	Logger       loggers.Logger
	Observers    []core.Observer
	ShouldUpdate bool
}

// RunEpisode runs a single episode to termination and returns its result
// record. Environment and actor errors abort the episode; nothing is
// recorded for an aborted episode.
func (l *Loop) RunEpisode() (map[string]any, error) {
	if l.Counter == nil {
		l.Counter = counting.New(nil, "")
	}

	episodeStart := time.Now()
	var selectDurations, stepDurations []float64
	episodeSteps := 0

	resetStart := time.Now()
	ts, err := l.Env.Reset()
	if err != nil {
		return nil, fmt.Errorf("env reset: %w", err)
	}
	resetDuration := time.Since(resetStart)

	if err := l.Actor.ObserveFirst(ts); err != nil {
		return nil, fmt.Errorf("observe first: %w", err)
	}
	for _, obs := range l.Observers {
		obs.ObserveFirst(l.Env, ts)
	}

	var episodeReturn core.Reward
	haveReturn := false

	for !ts.Last() {
		episodeSteps++

		selectStart := time.Now()
		action, err := l.Actor.SelectAction(ts.Observation)
		if err != nil {
			return nil, fmt.Errorf("select action: %w", err)
		}
		selectDurations = append(selectDurations, time.Since(selectStart).Seconds())

		stepStart := time.Now()
		next, err := l.Env.Step(action)
		if err != nil {
			return nil, fmt.Errorf("env step: %w", err)
		}
		stepDurations = append(stepDurations, time.Since(stepStart).Seconds())

		if err := l.Actor.Observe(action, next); err != nil {
			return nil, fmt.Errorf("observe: %w", err)
		}
		for _, obs := range l.Observers {
			obs.Observe(l.Env, next, action)
		}

		if l.ShouldUpdate {
			if err := l.Actor.Update(); err != nil {
				return nil, fmt.Errorf("actor update: %w", err)
			}
		}

		if haveReturn {
			episodeReturn, err = episodeReturn.Add(next.Reward)
			if err != nil {
				return nil, fmt.Errorf("episode return: %w", err)
			}
		} else {
			episodeReturn = next.Reward
			haveReturn = true
		}
		ts = next
	}

	counts := l.Counter.Increment(map[string]int64{
		"episodes": 1,
		"steps":    int64(episodeSteps),
	})

	result := map[string]any{
		"episode_length":             episodeSteps,
		"episode_return":             episodeReturn.Value(),
		"steps_per_second":           float64(episodeSteps) / time.Since(episodeStart).Seconds(),
		"env_reset_duration_sec":     resetDuration.Seconds(),
		"select_action_duration_sec": mean(selectDurations),
		"env_step_duration_sec":      mean(stepDurations),
	}
	for k, v := range counts {
		result[k] = v
	}
	for _, obs := range l.Observers {
		for k, v := range obs.Metrics() {
			result[k] = v
		}
	}
	return result, nil
}

// Run loops RunEpisode until the stop condition is met: numEpisodes > 0
// stops after that many episodes, numSteps > 0 stops once at least that many
// steps ran. Episodes always finish, so a step target may be overshot. While
// running, SIGINT/SIGTERM trigger a graceful stop checked only at episode
// boundaries. Returns the total steps executed.
func (l *Loop) Run(ctx context.Context, numEpisodes, numSteps int) (int, error) {
	if numEpisodes > 0 && numSteps > 0 {
		return 0, ErrBothStopConditions
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	episodeCount := 0
	stepCount := 0
	for {
		if numEpisodes > 0 && episodeCount >= numEpisodes {
			break
		}
		if numSteps > 0 && stepCount >= numSteps {
			break
		}
		select {
		case <-ctx.Done():
			return stepCount, nil
		default:
		}

		episodeStart := time.Now()
		result, err := l.RunEpisode()
		if err != nil {
			return stepCount, err
		}
		result["episode_duration"] = time.Since(episodeStart).Seconds()

		episodeCount++
		stepCount += result["episode_length"].(int)
		if l.Logger != nil {
			l.Logger.Write(result)
		}
	}
	return stepCount, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
