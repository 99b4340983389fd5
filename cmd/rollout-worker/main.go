package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"distributed-actor-learner/internal/worker"
)

const (
	defaultBufferURL  = "http://localhost:9001"
	defaultTrainerURL = "http://localhost:9002"
)

func main() {
	workerID := getenv("WORKER_ID", "worker-"+uuid.NewString())
	bufferURL := getenv("BUFFER_URL", defaultBufferURL)
	trainerURL := getenv("TRAINER_URL", defaultTrainerURL)
	numEpisodes := getenvInt("NUM_EPISODES", 0)
	numSteps := getenvInt("NUM_STEPS", 0)
	policyRefresh := time.Duration(getenvInt("POLICY_REFRESH_SEC", 5)) * time.Second
	seed := getenvInt64("SEED", time.Now().UnixNano())
	backoff := time.Duration(getenvInt("BACKOFF_MS", 500)) * time.Millisecond

	runner := &worker.Runner{
		WorkerID:      workerID,
		BufferURL:     bufferURL,
		TrainerURL:    trainerURL,
		NumEpisodes:   numEpisodes,
		NumSteps:      numSteps,
		PolicyRefresh: policyRefresh,
		Seed:          seed,
		Backoff:       backoff,
	}

	steps, err := runner.Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("rollout worker %s finished after %d steps", workerID, steps)
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

func getenvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
