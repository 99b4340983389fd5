package replay

import "distributed-actor-learner/internal/core"

// Wire types for the replay-buffer HTTP service. Actors POST InsertRequest
// batches to /insert; the learner GETs SampleResponse batches from /sample.

type InsertRequest struct {
	WorkerID    string            `json:"worker_id"`
	SentAtMs    int64             `json:"sent_at_ms"`
	Transitions []core.Transition `json:"transitions"`
}

type SampleResponse struct {
	Items []Item `json:"items"`
}
