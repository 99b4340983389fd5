package worker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"distributed-actor-learner/internal/core"
	"distributed-actor-learner/internal/replay"
)

// HTTPAdder buffers one episode's transitions and posts them to the replay
// service when the episode terminates. A 429 from the service is the
// admission controller pushing back; the adder backs off and retries rather
// than drop the batch.
type HTTPAdder struct {
	Client   *http.Client
	BaseURL  string
	WorkerID string
	Backoff  time.Duration
	Retries  int

	prev     core.Timestep
	havePrev bool
	pending  []core.Transition
}

func (a *HTTPAdder) AddFirst(ts core.Timestep) error {
	a.prev = ts
	a.havePrev = true
	return nil
}

func (a *HTTPAdder) Add(action int, next core.Timestep, extras map[string]float64) error {
	if !a.havePrev {
		return replay.ErrAddBeforeFirst
	}
	a.pending = append(a.pending, core.Transition{
		Observation:     a.prev.Observation,
		Action:          action,
		Reward:          next.Reward,
		Discount:        next.Discount,
		NextObservation: next.Observation,
		Extras:          extras,
	})
	a.prev = next
	if next.Last() {
		a.havePrev = false
		return a.flush()
	}
	return nil
}

func (a *HTTPAdder) flush() error {
	if len(a.pending) == 0 {
		return nil
	}
	req := replay.InsertRequest{
		WorkerID:    a.WorkerID,
		SentAtMs:    time.Now().UnixMilli(),
		Transitions: a.pending,
	}

	backoff := a.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	retries := a.Retries
	if retries <= 0 {
		retries = 8
	}
	for attempt := 0; attempt < retries; attempt++ {
		status, err := postJSON(a.client(), a.BaseURL+"/insert", req)
		if err != nil {
			return err
		}
		switch status {
		case http.StatusAccepted:
			a.pending = a.pending[:0]
			return nil
		case http.StatusTooManyRequests:
			time.Sleep(backoff)
		default:
			return fmt.Errorf("worker: replay service returned %d", status)
		}
	}
	return fmt.Errorf("worker: insert not admitted after %d attempts: %w", retries, replay.ErrTimeout)
}

func (a *HTTPAdder) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

// HTTPVariableSource pulls published policy weights from the trainer's
// /policy endpoint.
type HTTPVariableSource struct {
	Client     *http.Client
	TrainerURL string
}

type policyResponse struct {
	Version uint64          `json:"version"`
	Weights json.RawMessage `json:"weights"`
}

func (s *HTTPVariableSource) Params() (uint64, []byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(s.TrainerURL + "/policy")
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, nil, errors.New("worker: trainer returned non-200")
	}
	var payload policyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, nil, err
	}
	return payload.Version, payload.Weights, nil
}

func postJSON(client *http.Client, url string, payload any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
