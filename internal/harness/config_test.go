package harness

import (
	"errors"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		TableName:        "default",
		Capacity:         100,
		Selector:         "uniform",
		Remover:          "fifo",
		MinSizeToSample:  4,
		SamplesPerInsert: 1.0,
		ErrorBufferScale: 2.0,
		BatchSize:        2,
		NumEpisodes:      3,
		SampleTimeout:    100 * time.Millisecond,
		Seed:             1,
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Capacity = 0 }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"zero min size", func(c *Config) { c.MinSizeToSample = 0 }},
		{"min size over capacity", func(c *Config) { c.MinSizeToSample = 200 }},
		{"non-positive ratio", func(c *Config) { c.SamplesPerInsert = 0 }},
		{"non-positive scale", func(c *Config) { c.ErrorBufferScale = -1 }},
		{"both stop conditions", func(c *Config) { c.NumEpisodes = 1; c.NumSteps = 1 }},
		{"negative stop condition", func(c *Config) { c.NumEpisodes = 0; c.NumSteps = -1 }},
		{"unknown selector", func(c *Config) { c.Selector = "lifo" }},
		{"unknown remover", func(c *Config) { c.Remover = "newest" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestErrorBufferFormula(t *testing.T) {
	cfg := validConfig()
	cfg.MinSizeToSample = 32
	cfg.SamplesPerInsert = 4
	cfg.ErrorBufferScale = 0.1
	if got, want := cfg.ErrorBuffer(), 0.1*4*32; got != want {
		t.Fatalf("error buffer = %v, want %v", got, want)
	}
}

func TestNewTableFromConfig(t *testing.T) {
	table, err := validConfig().NewTable()
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	stats := table.Stats()
	if stats.Name != "default" || stats.Capacity != 100 {
		t.Fatalf("stats = %+v", stats)
	}

	bad := validConfig()
	bad.Selector = "lifo"
	if _, err := bad.NewTable(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}

	// A tolerance too tight for the ratio target must fail at construction,
	// not deadlock at runtime.
	tight := validConfig()
	tight.SamplesPerInsert = 8
	tight.ErrorBufferScale = 0.01
	if _, err := tight.NewTable(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig for a degenerate error buffer", err)
	}
}
