// Package replay implements the bounded transition store shared by actors
// and the learner: a named table with pluggable selection and eviction,
// gated by a rate limiter that blocks callers instead of dropping data.
package replay

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"distributed-actor-learner/internal/core"
)

var (
	// ErrCapacityExceeded means the table is full and eviction is disabled.
	// This is a configuration fault, not a transient condition.
	ErrCapacityExceeded = errors.New("replay: table at capacity and eviction disabled")
	// ErrTimeout means a blocking call's deadline expired before admission.
	ErrTimeout = errors.New("replay: deadline exceeded waiting for admission")
	// ErrTableClosed means the table was torn down while the call waited.
	ErrTableClosed = errors.New("replay: table closed")
)

// Item wraps a stored transition with the table's bookkeeping.
type Item struct {
	ID           uuid.UUID       `json:"id"`
	Seq          uint64          `json:"seq"`
	Priority     float64         `json:"priority"`
	TimesSampled int             `json:"times_sampled"`
	InsertedAt   time.Time       `json:"inserted_at"`
	Data         core.Transition `json:"data"`
}

// TableOptions configures a table. Selector defaults to Uniform, Remover to
// Fifo (use RemoverByName("none") to disable eviction), and Limiter to
// MinSize(1). MaxTimesSampled of 0 means items survive sampling.
type TableOptions struct {
	Name            string
	Capacity        int
	Selector        Selector
	Remover         Remover
	Limiter         RateLimiter
	MaxTimesSampled int
	Seed            int64
}

// Table is a capacity-bounded store of transitions, safe for concurrent use
// by any number of inserters and samplers. The total-inserted and
// total-sampled counters are monotonic for the table's lifetime; every
// Insert and Sample updates them atomically with the mutation it reports.
type Table struct {
	name            string
	capacity        int
	selector        Selector
	remover         Remover
	limiter         RateLimiter
	maxTimesSampled int

	mu       sync.Mutex
	cond     *sync.Cond
	rng      *rand.Rand
	items    []*Item
	seq      uint64
	inserted uint64
	sampled  uint64
	evicted  uint64
	deleted  uint64
	closed   bool
}

// Stats is a point-in-time snapshot of the table's counters.
type Stats struct {
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
	Inserted uint64 `json:"inserted"`
	Sampled  uint64 `json:"sampled"`
	Evicted  uint64 `json:"evicted"`
	Deleted  uint64 `json:"deleted"`
}

func NewTable(opts TableOptions) (*Table, error) {
	if opts.Capacity <= 0 {
		return nil, errors.New("replay: capacity must be greater than zero")
	}
	if opts.Selector == nil {
		opts.Selector = Uniform{}
	}
	if opts.Limiter == nil {
		opts.Limiter = MinSize{N: 1}
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	t := &Table{
		name:            opts.Name,
		capacity:        opts.Capacity,
		selector:        opts.Selector,
		remover:         opts.Remover,
		limiter:         opts.Limiter,
		maxTimesSampled: opts.MaxTimesSampled,
		rng:             rand.New(rand.NewSource(seed)),
		items:           make([]*Item, 0, opts.Capacity),
	}
	t.cond = sync.NewCond(&t.mu)
	return t, nil
}

func (t *Table) Name() string { return t.name }

// Insert stores one transition, evicting by policy if the table is full.
// timeout bounds the admission wait; zero or negative waits indefinitely.
// With the shipped limiters inserts are admitted immediately.
func (t *Table) Insert(tr core.Transition, priority float64, timeout time.Duration) error {
	deadline := toDeadline(timeout)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.awaitLocked(deadline, func() bool {
		return t.limiter.CanInsert(t.stateLocked())
	}); err != nil {
		return err
	}

	if len(t.items) >= t.capacity {
		if t.remover == nil {
			return ErrCapacityExceeded
		}
		idx := t.remover.Remove(t.items, t.rng)
		t.removeLocked(idx)
		t.evicted++
	}

	t.items = append(t.items, &Item{
		ID:         uuid.New(),
		Seq:        t.seq,
		Priority:   priority,
		InsertedAt: time.Now(),
		Data:       tr,
	})
	t.seq++
	t.inserted++
	t.cond.Broadcast()
	return nil
}

// Sample returns one item chosen by the selection policy, blocking until the
// rate limiter admits the call. timeout bounds the wait; zero or negative
// waits indefinitely. The item stays in the table unless MaxTimesSampled is
// reached.
func (t *Table) Sample(timeout time.Duration) (Item, error) {
	deadline := toDeadline(timeout)

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sampleLocked(deadline)
}

// SampleBatch returns up to n items, admitting each one independently
// against the rate limiter under a shared deadline. On timeout it returns
// whatever was already admitted alongside ErrTimeout.
func (t *Table) SampleBatch(n int, timeout time.Duration) ([]Item, error) {
	deadline := toDeadline(timeout)

	t.mu.Lock()
	defer t.mu.Unlock()

	items := make([]Item, 0, n)
	for len(items) < n {
		it, err := t.sampleLocked(deadline)
		if err != nil {
			return items, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Stats reports the current counters.
func (t *Table) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Name:     t.name,
		Size:     len(t.items),
		Capacity: t.capacity,
		Inserted: t.inserted,
		Sampled:  t.sampled,
		Evicted:  t.evicted,
		Deleted:  t.deleted,
	}
}

// Size returns the current item count.
func (t *Table) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// Close tears the table down and wakes every blocked caller with
// ErrTableClosed. Idempotent.
func (t *Table) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cond.Broadcast()
}

func (t *Table) sampleLocked(deadline time.Time) (Item, error) {
	if err := t.awaitLocked(deadline, func() bool {
		return len(t.items) > 0 && t.limiter.CanSample(t.stateLocked())
	}); err != nil {
		return Item{}, err
	}

	idx := t.selector.Select(t.items, t.rng)
	it := t.items[idx]
	it.TimesSampled++
	t.sampled++
	out := *it

	if t.maxTimesSampled > 0 && it.TimesSampled >= t.maxTimesSampled {
		t.removeLocked(idx)
		t.deleted++
	}
	t.cond.Broadcast()
	return out, nil
}

// awaitLocked blocks until admitted returns true, the deadline passes, or
// the table closes. Must be called with t.mu held; the lock is released
// while waiting.
func (t *Table) awaitLocked(deadline time.Time, admitted func() bool) error {
	if !deadline.IsZero() {
		// The timer callback takes the lock before broadcasting so the
		// wakeup cannot slip between a waiter's predicate check and its
		// cond.Wait.
		timer := time.AfterFunc(time.Until(deadline), func() {
			t.mu.Lock()
			t.cond.Broadcast()
			t.mu.Unlock()
		})
		defer timer.Stop()
	}
	for !admitted() {
		if t.closed {
			return ErrTableClosed
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return ErrTimeout
		}
		t.cond.Wait()
	}
	if t.closed {
		return ErrTableClosed
	}
	return nil
}

func (t *Table) stateLocked() TableState {
	return TableState{
		Size:     len(t.items),
		Inserts:  t.inserted,
		Samples:  t.sampled,
		Capacity: t.capacity,
	}
}

func (t *Table) removeLocked(idx int) {
	copy(t.items[idx:], t.items[idx+1:])
	t.items[len(t.items)-1] = nil
	t.items = t.items[:len(t.items)-1]
}

func toDeadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}
