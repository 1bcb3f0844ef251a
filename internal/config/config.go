// Package config loads process configuration from the environment, with an
// optional .env file loaded first, in the teacher's joho/godotenv style.
package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything cmd/kddindex needs to construct an engine.
type Config struct {
	// ArtifactRoot is the path to the .kdd-index directory.
	ArtifactRoot string
	// WorkerConcurrency holds the configured fan-out size
	// (KDD_WORKER_CONCURRENCY); indexer.Batch sizes its worker pool from
	// GOMAXPROCS and does not read this field.
	WorkerConcurrency int
	// EmbedTimeout holds the configured per-call embedding timeout
	// (KDD_EMBED_TIMEOUT); the pipeline applies no timeout and does not read
	// this field.
	EmbedTimeout time.Duration
	// EmbedderAPIKey and EmbedderBaseURL configure an HTTP-backed embedder
	// adapter; both are optional, and empty means "use the local adapter".
	EmbedderAPIKey  string
	EmbedderBaseURL string
}

// Load reads configuration from the environment, first loading a .env file
// from the working directory if one is present (a missing .env is not an
// error).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ArtifactRoot:      getEnv("KDD_ARTIFACT_ROOT", ".kdd-index"),
		WorkerConcurrency: getEnvInt("KDD_WORKER_CONCURRENCY", runtime.GOMAXPROCS(0)),
		EmbedTimeout:      getEnvDuration("KDD_EMBED_TIMEOUT", 30*time.Second),
		EmbedderAPIKey:    os.Getenv("KDD_EMBEDDER_API_KEY"),
		EmbedderBaseURL:   os.Getenv("KDD_EMBEDDER_BASE_URL"),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
