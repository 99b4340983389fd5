// Package variable carries policy parameters from the learner to actors.
// The learner publishes versions; actors pull through a caching client that
// tolerates staleness rather than block an action selection on a fetch.
package variable

import (
	"log"
	"sync"
	"time"

	"distributed-actor-learner/internal/core"
)

// Publisher is the learner-side in-process variable source. Publish installs
// a new payload under the next version; Params serves the latest.
type Publisher struct {
	mu      sync.Mutex
	version uint64
	payload []byte
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish copies the payload and returns the version assigned to it.
func (p *Publisher) Publish(payload []byte) uint64 {
	copied := make([]byte, len(payload))
	copy(copied, payload)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.version++
	p.payload = copied
	return p.version
}

func (p *Publisher) Params() (uint64, []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.payload == nil {
		return 0, nil, nil
	}
	out := make([]byte, len(p.payload))
	copy(out, p.payload)
	return p.version, out, nil
}

// Client caches the last parameters pulled from a source. Params refreshes
// inline at most once per update period and keeps serving the stale copy
// when the source is unreachable, so action selection never blocks on the
// learner.
type Client struct {
	source core.VariableSource
	period time.Duration

	mu        sync.Mutex
	version   uint64
	payload   []byte
	lastFetch time.Time
}

func NewClient(source core.VariableSource, period time.Duration) *Client {
	return &Client{source: source, period: period}
}

// Params returns the cached (version, payload), refreshing first if the
// update period has elapsed since the last attempt.
func (c *Client) Params() (uint64, []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastFetch.IsZero() || time.Since(c.lastFetch) >= c.period {
		c.lastFetch = time.Now()
		version, payload, err := c.source.Params()
		if err != nil {
			log.Printf("variable fetch failed, keeping version %d: %v", c.version, err)
		} else if payload != nil && version != c.version {
			c.version = version
			c.payload = payload
		}
	}
	return c.version, c.payload
}
