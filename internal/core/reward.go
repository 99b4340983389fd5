package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRewardShape is returned when two rewards of different shapes are added.
var ErrRewardShape = errors.New("core: mismatched reward shapes")

// RewardKind tags the shape of a Reward.
type RewardKind int

const (
	RewardScalar RewardKind = iota
	RewardVector
	RewardNamed
)

// Reward is a tagged variant over the shapes an environment may emit: a plain
// scalar, a fixed-length vector of channels, or a named mapping of
// sub-rewards. Addition is defined per variant; the zero value is scalar 0.
type Reward struct {
	kind   RewardKind
	scalar float64
	vector []float64
	named  map[string]float64
}

func ScalarReward(v float64) Reward {
	return Reward{kind: RewardScalar, scalar: v}
}

func VectorReward(v ...float64) Reward {
	vec := make([]float64, len(v))
	copy(vec, v)
	return Reward{kind: RewardVector, vector: vec}
}

func NamedReward(m map[string]float64) Reward {
	named := make(map[string]float64, len(m))
	for k, v := range m {
		named[k] = v
	}
	return Reward{kind: RewardNamed, named: named}
}

func (r Reward) Kind() RewardKind { return r.kind }

// Scalar returns the scalar value; zero for non-scalar rewards.
func (r Reward) Scalar() float64 { return r.scalar }

// Add returns the element-wise sum of two rewards of the same shape.
func (r Reward) Add(o Reward) (Reward, error) {
	if r.kind != o.kind {
		return Reward{}, fmt.Errorf("%w: %v + %v", ErrRewardShape, r.kind, o.kind)
	}
	switch r.kind {
	case RewardScalar:
		return ScalarReward(r.scalar + o.scalar), nil
	case RewardVector:
		if len(r.vector) != len(o.vector) {
			return Reward{}, fmt.Errorf("%w: vector lengths %d and %d", ErrRewardShape, len(r.vector), len(o.vector))
		}
		sum := make([]float64, len(r.vector))
		for i := range sum {
			sum[i] = r.vector[i] + o.vector[i]
		}
		return Reward{kind: RewardVector, vector: sum}, nil
	case RewardNamed:
		if len(r.named) != len(o.named) {
			return Reward{}, fmt.Errorf("%w: named channels %d and %d", ErrRewardShape, len(r.named), len(o.named))
		}
		sum := make(map[string]float64, len(r.named))
		for k, v := range r.named {
			ov, ok := o.named[k]
			if !ok {
				return Reward{}, fmt.Errorf("%w: missing channel %q", ErrRewardShape, k)
			}
			sum[k] = v + ov
		}
		return Reward{kind: RewardNamed, named: sum}, nil
	}
	return Reward{}, fmt.Errorf("%w: unknown kind %v", ErrRewardShape, r.kind)
}

// Value renders the reward for telemetry maps: float64, []float64, or
// map[string]float64 depending on shape.
func (r Reward) Value() any {
	switch r.kind {
	case RewardVector:
		vec := make([]float64, len(r.vector))
		copy(vec, r.vector)
		return vec
	case RewardNamed:
		named := make(map[string]float64, len(r.named))
		for k, v := range r.named {
			named[k] = v
		}
		return named
	default:
		return r.scalar
	}
}

// MarshalJSON encodes the reward as its natural JSON shape: a number, an
// array, or an object.
func (r Reward) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value())
}

func (r *Reward) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*r = ScalarReward(scalar)
		return nil
	}
	var vector []float64
	if err := json.Unmarshal(data, &vector); err == nil {
		*r = VectorReward(vector...)
		return nil
	}
	var named map[string]float64
	if err := json.Unmarshal(data, &named); err == nil {
		*r = NamedReward(named)
		return nil
	}
	return fmt.Errorf("core: reward must be a number, array, or object: %s", data)
}
