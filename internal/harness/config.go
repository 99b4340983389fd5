// Package harness assembles the training pipeline from a declarative
// configuration: replay table, admission control, environment loop, learner
// feed, and parameter propagation. Components only see each other through
// the core interfaces, so the same pieces run in one process here or split
// across the cmd binaries.
package harness

import (
	"errors"
	"fmt"
	"time"

	"distributed-actor-learner/internal/replay"
)

// ErrInvalidConfig wraps every configuration failure. All validation runs
// before any component starts.
var ErrInvalidConfig = errors.New("harness: invalid configuration")

// Config is the declarative surface for a training run.
type Config struct {
	TableName string
	Capacity  int
	// Selector is "uniform" or "priority"; Remover is "fifo", "age", or
	// "none" to disable eviction. Empty picks the defaults (uniform, fifo).
	Selector string
	Remover  string

	MinSizeToSample  int
	SamplesPerInsert float64
	// ErrorBufferScale is the tolerance rate; the limiter's absolute error
	// buffer is ErrorBufferScale * SamplesPerInsert * MinSizeToSample.
	ErrorBufferScale float64

	BatchSize       int
	MaxTimesSampled int

	// Exactly one of NumEpisodes/NumSteps may be set. Both zero runs until
	// the context stops.
	NumEpisodes int
	NumSteps    int

	// SampleTimeout bounds each learner batch wait; zero waits forever.
	SampleTimeout time.Duration
	ShouldUpdate  bool
	Seed          int64
}

// Validate reports every configuration error at once, before anything runs.
func (c Config) Validate() error {
	var errs []error
	if c.Capacity <= 0 {
		errs = append(errs, errors.New("capacity must be greater than zero"))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be greater than zero"))
	}
	if c.MinSizeToSample < 1 {
		errs = append(errs, errors.New("min size to sample must be at least 1"))
	}
	if c.Capacity > 0 && c.MinSizeToSample > c.Capacity {
		errs = append(errs, errors.New("min size to sample exceeds capacity"))
	}
	if c.SamplesPerInsert <= 0 {
		errs = append(errs, errors.New("samples per insert must be positive"))
	}
	if c.ErrorBufferScale <= 0 {
		errs = append(errs, errors.New("error buffer scale must be positive"))
	}
	if c.NumEpisodes > 0 && c.NumSteps > 0 {
		errs = append(errs, errors.New("num episodes and num steps are mutually exclusive"))
	}
	if c.NumEpisodes < 0 || c.NumSteps < 0 {
		errs = append(errs, errors.New("stop conditions must be non-negative"))
	}
	if _, err := replay.SelectorByName(c.Selector); err != nil {
		errs = append(errs, err)
	}
	if _, err := replay.RemoverByName(c.Remover); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ErrorBuffer is the absolute imbalance tolerance handed to the limiter.
func (c Config) ErrorBuffer() float64 {
	return c.ErrorBufferScale * c.SamplesPerInsert * float64(c.MinSizeToSample)
}

// NewTable builds the replay table and its admission controller from the
// configuration.
func (c Config) NewTable() (*replay.Table, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	selector, err := replay.SelectorByName(c.Selector)
	if err != nil {
		return nil, err
	}
	remover, err := replay.RemoverByName(c.Remover)
	if err != nil {
		return nil, err
	}
	limiter, err := replay.NewSampleToInsertRatio(c.MinSizeToSample, c.SamplesPerInsert, c.ErrorBuffer())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return replay.NewTable(replay.TableOptions{
		Name:            c.TableName,
		Capacity:        c.Capacity,
		Selector:        selector,
		Remover:         remover,
		Limiter:         limiter,
		MaxTimesSampled: c.MaxTimesSampled,
		Seed:            c.Seed,
	})
}
