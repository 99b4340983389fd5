package replay

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestSampleToInsertRatioValidation(t *testing.T) {
	cases := []struct {
		name        string
		minSize     int
		spi         float64
		errorBuffer float64
	}{
		{"zero min size", 0, 1, 10},
		{"non-positive ratio", 10, 0, 10},
		{"negative ratio", 10, -2, 10},
		{"error buffer below one", 10, 0.5, 1.5},
		{"error buffer below ratio", 10, 8, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSampleToInsertRatio(tc.minSize, tc.spi, tc.errorBuffer); err == nil {
				t.Fatal("expected construction error")
			}
		})
	}

	if _, err := NewSampleToInsertRatio(10, 2, 8); err != nil {
		t.Fatalf("valid limiter rejected: %v", err)
	}
}

func TestSampleAdmissionBoundary(t *testing.T) {
	lim, err := NewSampleToInsertRatio(2, 1.0, 4)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	// Below the minimum size no state admits a sample.
	if lim.CanSample(TableState{Size: 1, Inserts: 100, Samples: 0}) {
		t.Fatal("admitted sample below min size")
	}

	// Upper bound: samples < spi*inserts + errorBuffer/2 = inserts + 2.
	s := TableState{Size: 2, Inserts: 10}
	s.Samples = 11
	if !lim.CanSample(s) {
		t.Fatal("sample at 11 of bound 12 should be admitted")
	}
	s.Samples = 12
	if lim.CanSample(s) {
		t.Fatal("sample at the bound must block")
	}

	// Inserts are never ratio-blocked.
	if !lim.CanInsert(s) {
		t.Fatal("insert blocked by ratio")
	}
}

func TestLongRunRatioWithinErrorBuffer(t *testing.T) {
	const (
		minSize     = 10
		spi         = 2.0
		errorBuffer = 40.0
		inserts     = 1000
	)
	lim, err := NewSampleToInsertRatio(minSize, spi, errorBuffer)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	// A greedy learner samples whenever admitted; the observed ratio must
	// stay within the absolute imbalance band, which shrinks relatively as
	// volume grows.
	s := TableState{}
	for i := 0; i < inserts; i++ {
		s.Inserts++
		if s.Size < 100 {
			s.Size++
		}
		for lim.CanSample(s) {
			s.Samples++
		}
	}

	ratio := float64(s.Samples) / float64(s.Inserts)
	if math.Abs(ratio-spi) > errorBuffer/float64(inserts) {
		t.Fatalf("ratio %v drifted beyond %v of target %v", ratio, errorBuffer/float64(inserts), spi)
	}
}

func TestRatioLimiterBlocksGreedySampler(t *testing.T) {
	lim, err := NewSampleToInsertRatio(1, 1.0, 4)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	table := mustTable(t, TableOptions{
		Capacity: 100,
		Remover:  Fifo{},
		Limiter:  lim,
		Seed:     1,
	})
	if err := table.Insert(testTransition(0), 1, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Bound is spi*inserts + eb/2 = 3 samples for one insert.
	for i := 0; i < 3; i++ {
		if _, err := table.Sample(time.Second); err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
	}
	if _, err := table.Sample(30 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout once the band is exhausted", err)
	}

	// One more insert moves the bound and re-admits the sampler.
	if err := table.Insert(testTransition(1), 1, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := table.Sample(time.Second); err != nil {
		t.Fatalf("sample after insert: %v", err)
	}
}

func TestDatasetNext(t *testing.T) {
	table := mustTable(t, TableOptions{Capacity: 10, Remover: Fifo{}, Seed: 1})
	for i := 0; i < 4; i++ {
		if err := table.Insert(testTransition(i), 1, 0); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	ds := NewDataset(table, 2, time.Second)
	items, err := ds.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("batch = %d items, want 2", len(items))
	}
	for _, it := range items {
		if it.Data.Discount != 1 {
			t.Fatalf("unexpected item %+v", it)
		}
	}
}

func TestPrioritySelectorPrefersHeavyItems(t *testing.T) {
	table := mustTable(t, TableOptions{
		Capacity: 10,
		Selector: PriorityWeighted{},
		Remover:  Fifo{},
		Seed:     1,
	})
	// One item carries all the weight.
	if err := table.Insert(testTransition(0), 0, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := table.Insert(testTransition(1), 5, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}
	for i := 0; i < 20; i++ {
		it, err := table.Sample(time.Second)
		if err != nil {
			t.Fatalf("sample: %v", err)
		}
		if it.Data.Observation[0] != 1 {
			t.Fatalf("zero-priority item sampled while a weighted item exists")
		}
	}
}
