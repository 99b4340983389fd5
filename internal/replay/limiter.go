package replay

import (
	"errors"
	"fmt"
)

// TableState is the view of a table's counters a rate limiter decides on.
// Limiters hold no mutable state of their own; every admission check is
// recomputed from these counters under the table lock.
type TableState struct {
	Size     int
	Inserts  uint64
	Samples  uint64
	Capacity int
}

// RateLimiter gates insert and sample admission. A call that is not admitted
// blocks inside the table until a later mutation makes the condition true or
// its deadline expires.
type RateLimiter interface {
	CanInsert(s TableState) bool
	CanSample(s TableState) bool
}

// MinSize admits samples once the table holds at least N items and never
// blocks inserts.
type MinSize struct {
	N int
}

func (m MinSize) CanInsert(TableState) bool   { return true }
func (m MinSize) CanSample(s TableState) bool { return s.Size >= m.N }

// SampleToInsertRatio keeps the long-run samples-per-insert ratio within an
// absolute imbalance band. Sampling is admitted only while
//
//	samples < samplesPerInsert*inserts + errorBuffer/2
//
// so a learner that races ahead of the actors parks until fresh data
// arrives. Inserts are never ratio-blocked: an insert is what unblocks a
// stalled sampler, and capacity pressure is handled by eviction.
type SampleToInsertRatio struct {
	minSizeToSample  int
	samplesPerInsert float64
	errorBuffer      float64
}

// NewSampleToInsertRatio validates the band. The error buffer must admit at
// least one sample and one insert's worth of slack, otherwise the first
// batch-sized sample call would deadlock.
func NewSampleToInsertRatio(minSizeToSample int, samplesPerInsert, errorBuffer float64) (*SampleToInsertRatio, error) {
	if minSizeToSample < 1 {
		return nil, errors.New("replay: min size to sample must be at least 1")
	}
	if samplesPerInsert <= 0 {
		return nil, fmt.Errorf("replay: samples per insert must be positive, got %v", samplesPerInsert)
	}
	if half := errorBuffer / 2; half < 1 || half < samplesPerInsert {
		return nil, fmt.Errorf("replay: error buffer %v too small to guarantee progress", errorBuffer)
	}
	return &SampleToInsertRatio{
		minSizeToSample:  minSizeToSample,
		samplesPerInsert: samplesPerInsert,
		errorBuffer:      errorBuffer,
	}, nil
}

func (r *SampleToInsertRatio) CanInsert(TableState) bool { return true }

func (r *SampleToInsertRatio) CanSample(s TableState) bool {
	if s.Size < r.minSizeToSample {
		return false
	}
	return float64(s.Samples) < r.samplesPerInsert*float64(s.Inserts)+r.errorBuffer/2
}
