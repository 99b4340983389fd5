package worker

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Weights is the wire form of the linear softmax policy published by the
// trainer: an action-by-observation logit matrix with bias, plus a linear
// value head.
type Weights struct {
	W  [][]float64 `json:"w"`
	B  []float64   `json:"b"`
	VW []float64   `json:"vw"`
	VB float64     `json:"vb"`
}

// DefaultWeights is the near-zero policy a worker starts from before its
// first successful pull from the trainer.
func DefaultWeights() Weights {
	return Weights{
		W: [][]float64{
			{0.01, 0.01, 0.01, 0.01},
			{-0.01, -0.01, -0.01, -0.01},
		},
		B:  []float64{0, 0},
		VW: []float64{0, 0, 0, 0},
		VB: 0,
	}
}

// Policy evaluates action probabilities and a value estimate for an
// observation.
type Policy struct {
	w  *mat.Dense
	b  *mat.VecDense
	vw *mat.VecDense
	vb float64
}

func NewPolicy(weights Weights) (*Policy, error) {
	actions := len(weights.W)
	if actions == 0 || len(weights.B) != actions {
		return nil, errors.New("worker: logit weights and bias shapes disagree")
	}
	obsDim := len(weights.W[0])
	if obsDim == 0 || len(weights.VW) != obsDim {
		return nil, errors.New("worker: value weights and observation shapes disagree")
	}
	flat := make([]float64, 0, actions*obsDim)
	for _, row := range weights.W {
		if len(row) != obsDim {
			return nil, errors.New("worker: ragged logit weight rows")
		}
		flat = append(flat, row...)
	}
	return &Policy{
		w:  mat.NewDense(actions, obsDim, flat),
		b:  mat.NewVecDense(actions, append([]float64(nil), weights.B...)),
		vw: mat.NewVecDense(obsDim, append([]float64(nil), weights.VW...)),
		vb: weights.VB,
	}, nil
}

// Evaluate returns the softmax action distribution and the value estimate
// for one observation.
func (p *Policy) Evaluate(observation []float64) ([]float64, float64, error) {
	rows, cols := p.w.Dims()
	if len(observation) != cols {
		return nil, 0, errors.New("worker: observation dimension mismatch")
	}
	obs := mat.NewVecDense(cols, observation)

	logits := mat.NewVecDense(rows, nil)
	logits.MulVec(p.w, obs)
	logits.AddVec(logits, p.b)

	value := mat.Dot(p.vw, obs) + p.vb
	return softmax(logits.RawVector().Data), value, nil
}

func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	values := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		values[i] = math.Exp(v - maxLogit)
		sum += values[i]
	}
	for i := range values {
		values[i] /= sum
	}
	return values
}

func sampleCategorical(probs []float64, rng *rand.Rand) int {
	threshold := rng.Float64()
	var cumulativeProb float64
	for i, prob := range probs {
		cumulativeProb += prob
		if threshold <= cumulativeProb {
			return i
		}
	}
	return len(probs) - 1
}
