package main

import (
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"distributed-actor-learner/internal/harness"
	"distributed-actor-learner/internal/replay"
)

const (
	defaultCapacity = 2048
	defaultPort     = "9001"
)

func main() {
	flag.Parse()

	cfg := harness.Config{
		TableName:        getenv("TABLE_NAME", "default"),
		Capacity:         getenvInt("BUFFER_CAPACITY", defaultCapacity),
		Selector:         getenv("SELECTOR", "uniform"),
		Remover:          getenv("REMOVER", "fifo"),
		MinSizeToSample:  getenvInt("MIN_SIZE_TO_SAMPLE", 32),
		SamplesPerInsert: getenvFloat("SAMPLES_PER_INSERT", 4.0),
		ErrorBufferScale: getenvFloat("ERROR_BUFFER_SCALE", 0.1),
		BatchSize:        getenvInt("BATCH_SIZE", 32),
		MaxTimesSampled:  getenvInt("MAX_TIMES_SAMPLED", 0),
	}
	port := getenv("PORT", defaultPort)
	insertTimeout := time.Duration(getenvInt("INSERT_TIMEOUT_MS", 1000)) * time.Millisecond
	sampleTimeout := time.Duration(getenvInt("SAMPLE_TIMEOUT_MS", 1000)) * time.Millisecond

	table, err := cfg.NewTable()
	if err != nil {
		log.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(table.Stats()); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	})
	mux.HandleFunc("/insert", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req replay.InsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		for _, tr := range req.Transitions {
			err := table.Insert(tr, 1, insertTimeout)
			if errors.Is(err, replay.ErrTimeout) {
				// Not admitted in time. The worker backs off and resends the
				// whole batch; a duplicate transition in replay is harmless,
				// a dropped one is not.
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			if err != nil {
				log.Printf("insert failed: %v", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/sample", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		batchSize := cfg.BatchSize
		if value := r.URL.Query().Get("batch_size"); value != "" {
			if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
				batchSize = parsed
			}
		}

		items, err := table.SampleBatch(batchSize, sampleTimeout)
		if err != nil && len(items) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(replay.SampleResponse{Items: items}); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stats := table.Stats()
	log.Printf("replay buffer listening on :%s (table=%s capacity=%d selector=%s remover=%s min_size=%d spi=%.2f)",
		port, stats.Name, stats.Capacity, cfg.Selector, cfg.Remover, cfg.MinSizeToSample, cfg.SamplesPerInsert)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
