package replay

import (
	"errors"
	"time"

	"distributed-actor-learner/internal/core"
)

// ErrAddBeforeFirst means Add was called without AddFirst opening the
// episode.
var ErrAddBeforeFirst = errors.New("replay: Add called before AddFirst")

// Adder turns consecutive timesteps into transitions and inserts them into a
// local table. One adder serves one episode stream; it is not safe for
// concurrent use, matching the strictly sequential driver loop.
type Adder struct {
	table    *Table
	timeout  time.Duration
	priority float64
	prev     core.Timestep
	havePrev bool
}

// NewAdder writes to table with the given insert admission timeout (zero
// waits indefinitely). Inserted items carry priority 1.
func NewAdder(table *Table, timeout time.Duration) *Adder {
	return &Adder{table: table, timeout: timeout, priority: 1}
}

func (a *Adder) AddFirst(ts core.Timestep) error {
	a.prev = ts
	a.havePrev = true
	return nil
}

func (a *Adder) Add(action int, next core.Timestep, extras map[string]float64) error {
	if !a.havePrev {
		return ErrAddBeforeFirst
	}
	tr := core.Transition{
		Observation:     a.prev.Observation,
		Action:          action,
		Reward:          next.Reward,
		Discount:        next.Discount,
		NextObservation: next.Observation,
		Extras:          extras,
	}
	if err := a.table.Insert(tr, a.priority, a.timeout); err != nil {
		return err
	}
	a.prev = next
	if next.Last() {
		a.havePrev = false
	}
	return nil
}
