// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/terminal-bench/txengine/internal/logging"
	"github.com/terminal-bench/txengine/pkg/messaging"
	"github.com/terminal-bench/txengine/pkg/metrics"
)

type Config struct {
	Environment   logging.Environment
	LogLevel      string
	Workers       int
	SortedOutput  bool
	NATSURL       string
	SubjectPrefix string
	Influx        metrics.Config
}

// Load reads a .env file from the working directory when there is one and
// then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (*Config, error) {
	workers, err := intEnv("LEDGER_WORKERS", 1)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("LEDGER_WORKERS must be at least 1, got %d", workers)
	}

	sorted, err := boolEnv("LEDGER_SORTED_OUTPUT", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment:   logging.Environment(getEnv("APP_ENV", string(logging.EnvironmentProduction))),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Workers:       workers,
		SortedOutput:  sorted,
		NATSURL:       os.Getenv("NATS_URL"),
		SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", messaging.DefaultSubjectPrefix),
		Influx: metrics.Config{
			URL:    os.Getenv("INFLUXDB_URL"),
			Token:  os.Getenv("INFLUXDB_TOKEN"),
			Org:    os.Getenv("INFLUXDB_ORG"),
			Bucket: os.Getenv("INFLUXDB_BUCKET"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
