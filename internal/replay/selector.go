package replay

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// Selector picks which stored item a Sample call returns. Implementations
// are called under the table lock with a non-empty item slice.
type Selector interface {
	Select(items []*Item, rng *rand.Rand) int
}

// Remover picks which stored item is evicted when the table is at capacity.
type Remover interface {
	Remove(items []*Item, rng *rand.Rand) int
}

// Uniform selects each present item with equal probability.
type Uniform struct{}

func (Uniform) Select(items []*Item, rng *rand.Rand) int {
	return rng.Intn(len(items))
}

// PriorityWeighted selects items with probability proportional to their
// stored priority. Items with zero priority are never drawn while any item
// has positive priority.
type PriorityWeighted struct{}

func (PriorityWeighted) Select(items []*Item, rng *rand.Rand) int {
	weights := make([]float64, len(items))
	total := 0.0
	for i, it := range items {
		weights[i] = it.Priority
		total += it.Priority
	}
	if total <= 0 {
		return rng.Intn(len(items))
	}
	idx, ok := sampleuv.NewWeighted(weights, nil).Take()
	if !ok {
		return rng.Intn(len(items))
	}
	return idx
}

// Fifo evicts the oldest insertion. Items are held in insertion order, so
// the head is always the oldest.
type Fifo struct{}

func (Fifo) Remove(items []*Item, rng *rand.Rand) int {
	return 0
}

// AgeWeighted evicts with probability proportional to item age, so older
// items are more likely, but not certain, to go first.
type AgeWeighted struct{}

func (AgeWeighted) Remove(items []*Item, rng *rand.Rand) int {
	newest := items[len(items)-1].Seq
	weights := make([]float64, len(items))
	for i, it := range items {
		weights[i] = float64(newest-it.Seq) + 1
	}
	idx, ok := sampleuv.NewWeighted(weights, nil).Take()
	if !ok {
		return 0
	}
	return idx
}

// SelectorByName maps a configuration string to a selector.
func SelectorByName(name string) (Selector, error) {
	switch name {
	case "", "uniform":
		return Uniform{}, nil
	case "priority":
		return PriorityWeighted{}, nil
	default:
		return nil, fmt.Errorf("replay: unknown selector %q", name)
	}
}

// RemoverByName maps a configuration string to a remover.
func RemoverByName(name string) (Remover, error) {
	switch name {
	case "", "fifo":
		return Fifo{}, nil
	case "age":
		return AgeWeighted{}, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("replay: unknown remover %q", name)
	}
}
