// Package loggers defines the telemetry sink the environment loop writes
// episode results to, plus the two implementations the harness ships: one
// backed by the standard library logger and one in-memory for tests.
package loggers

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
)

// Logger accepts a flat mapping of metric name to value.
type Logger interface {
	Write(values map[string]any)
}

// Standard renders each record as sorted key=value pairs through the stdlib
// logger.
type Standard struct {
	label string
}

func NewStandard(label string) *Standard {
	return &Standard{label: label}
}

func (s *Standard) Write(values map[string]any) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, values[k])
	}
	log.Printf("[%s] %s", s.label, b.String())
}

// InMemory records every written result, for tests.
type InMemory struct {
	mu      sync.Mutex
	records []map[string]any
}

func (m *InMemory) Write(values map[string]any) {
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	m.mu.Lock()
	m.records = append(m.records, copied)
	m.mu.Unlock()
}

// Records returns the written results in order.
func (m *InMemory) Records() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, len(m.records))
	copy(out, m.records)
	return out
}
