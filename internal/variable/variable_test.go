package variable

import (
	"errors"
	"testing"
	"time"
)

type countingSource struct {
	version uint64
	payload []byte
	err     error
	calls   int
}

func (s *countingSource) Params() (uint64, []byte, error) {
	s.calls++
	if s.err != nil {
		return 0, nil, s.err
	}
	return s.version, s.payload, nil
}

func TestPublisherVersions(t *testing.T) {
	p := NewPublisher()
	if v, payload, _ := p.Params(); v != 0 || payload != nil {
		t.Fatalf("fresh publisher served version %d payload %v", v, payload)
	}
	if v := p.Publish([]byte("a")); v != 1 {
		t.Fatalf("first publish version = %d, want 1", v)
	}
	if v := p.Publish([]byte("b")); v != 2 {
		t.Fatalf("second publish version = %d, want 2", v)
	}
	v, payload, err := p.Params()
	if err != nil || v != 2 || string(payload) != "b" {
		t.Fatalf("params = (%d, %q, %v), want (2, b, nil)", v, payload, err)
	}
}

func TestClientRefreshesOncePerPeriod(t *testing.T) {
	src := &countingSource{version: 3, payload: []byte("w")}
	c := NewClient(src, time.Hour)

	if v, payload := c.Params(); v != 3 || string(payload) != "w" {
		t.Fatalf("params = (%d, %q), want (3, w)", v, payload)
	}
	c.Params()
	c.Params()
	if src.calls != 1 {
		t.Fatalf("source fetched %d times within one period, want 1", src.calls)
	}
}

func TestClientServesStaleOnError(t *testing.T) {
	src := &countingSource{version: 1, payload: []byte("v1")}
	c := NewClient(src, 0)

	if v, _ := c.Params(); v != 1 {
		t.Fatalf("version = %d, want 1", v)
	}

	src.err = errors.New("trainer down")
	v, payload := c.Params()
	if v != 1 || string(payload) != "v1" {
		t.Fatalf("stale params = (%d, %q), want cached (1, v1)", v, payload)
	}

	src.err = nil
	src.version = 2
	src.payload = []byte("v2")
	if v, payload := c.Params(); v != 2 || string(payload) != "v2" {
		t.Fatalf("params = (%d, %q), want refreshed (2, v2)", v, payload)
	}
}

func TestClientTracksPublisher(t *testing.T) {
	p := NewPublisher()
	c := NewClient(p, 0)

	if v, payload := c.Params(); v != 0 || payload != nil {
		t.Fatalf("params before publish = (%d, %v)", v, payload)
	}

	p.Publish([]byte("first"))
	if v, payload := c.Params(); v != 1 || string(payload) != "first" {
		t.Fatalf("params = (%d, %q), want (1, first)", v, payload)
	}
}
