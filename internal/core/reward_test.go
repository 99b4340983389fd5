package core

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestRewardAddScalar(t *testing.T) {
	sum, err := ScalarReward(1).Add(ScalarReward(2))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := sum.Scalar(); got != 3 {
		t.Fatalf("scalar sum = %v, want 3", got)
	}
}

func TestRewardAddVector(t *testing.T) {
	sum, err := VectorReward(1, 2).Add(VectorReward(3, 4))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := sum.Value().([]float64); !reflect.DeepEqual(got, []float64{4, 6}) {
		t.Fatalf("vector sum = %v, want [4 6]", got)
	}
}

func TestRewardAddNamed(t *testing.T) {
	a := NamedReward(map[string]float64{"task": 1, "shaping": 0.5})
	b := NamedReward(map[string]float64{"task": 2, "shaping": 0.25})
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	want := map[string]float64{"task": 3, "shaping": 0.75}
	if got := sum.Value().(map[string]float64); !reflect.DeepEqual(got, want) {
		t.Fatalf("named sum = %v, want %v", got, want)
	}
}

func TestRewardAddShapeMismatch(t *testing.T) {
	cases := []struct {
		name string
		a, b Reward
	}{
		{"scalar+vector", ScalarReward(1), VectorReward(1)},
		{"vector lengths", VectorReward(1), VectorReward(1, 2)},
		{"named channels", NamedReward(map[string]float64{"a": 1}), NamedReward(map[string]float64{"b": 1})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.a.Add(tc.b); !errors.Is(err, ErrRewardShape) {
				t.Fatalf("err = %v, want ErrRewardShape", err)
			}
		})
	}
}

func TestRewardJSON(t *testing.T) {
	var r Reward
	if err := json.Unmarshal([]byte(`1.5`), &r); err != nil {
		t.Fatalf("unmarshal scalar: %v", err)
	}
	if r.Kind() != RewardScalar || r.Scalar() != 1.5 {
		t.Fatalf("decoded %v %v, want scalar 1.5", r.Kind(), r.Scalar())
	}

	if err := json.Unmarshal([]byte(`{"task": 2}`), &r); err != nil {
		t.Fatalf("unmarshal named: %v", err)
	}
	if r.Kind() != RewardNamed {
		t.Fatalf("kind = %v, want named", r.Kind())
	}

	out, err := json.Marshal(VectorReward(1, 2))
	if err != nil {
		t.Fatalf("marshal vector: %v", err)
	}
	if string(out) != "[1,2]" {
		t.Fatalf("marshal = %s, want [1,2]", out)
	}
}

func TestRewardZeroValueAccumulates(t *testing.T) {
	var total Reward
	for _, v := range []float64{1, 2, 3} {
		sum, err := total.Add(ScalarReward(v))
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		total = sum
	}
	if math.Abs(total.Scalar()-6) > 1e-12 {
		t.Fatalf("total = %v, want 6", total.Scalar())
	}
}
