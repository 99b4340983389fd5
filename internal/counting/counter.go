// Package counting provides the shared monotonic counter service used to
// track process-wide episode and step totals. Counters are explicitly
// injected rather than global so tests and independent runs stay isolated.
package counting

import "sync"

// Counter accumulates named int64 totals. A child counter created with a
// prefix forwards increments to its parent with prefixed keys, so one root
// counter can aggregate several labeled components.
type Counter struct {
	mu     sync.Mutex
	parent *Counter
	prefix string
	counts map[string]int64
}

// New returns a counter. parent may be nil for a root counter; prefix is
// applied to keys forwarded to the parent.
func New(parent *Counter, prefix string) *Counter {
	return &Counter{
		parent: parent,
		prefix: prefix,
		counts: make(map[string]int64),
	}
}

// Increment atomically adds the given deltas and returns a snapshot of the
// totals visible after the update.
func (c *Counter) Increment(counts map[string]int64) map[string]int64 {
	if c.parent != nil {
		prefixed := make(map[string]int64, len(counts))
		for k, v := range counts {
			prefixed[c.key(k)] = v
		}
		return c.parent.Increment(prefixed)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range counts {
		c.counts[k] += v
	}
	return c.snapshotLocked()
}

// Get returns a snapshot of the current totals.
func (c *Counter) Get() map[string]int64 {
	if c.parent != nil {
		return c.parent.Get()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Counter) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + "_" + k
}

func (c *Counter) snapshotLocked() map[string]int64 {
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
