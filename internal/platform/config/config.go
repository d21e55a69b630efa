package config

import (
	"os"
	"strconv"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr        string
	DatabaseURL string
	LogLevel    string

	// CohortPageSize bounds a single practitioner page during all-filtered
	// cohort resolution and the deadline sweep's roster walk.
	CohortPageSize int
	// DeadlineSweepSpec is a cron expression for the compliance deadline sweep.
	// Empty disables the sweep.
	DeadlineSweepSpec string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("CPDTRACK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	dbURL := os.Getenv("CPDTRACK_DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost:5432/cpdtrack?sslmode=disable"
	}

	logLevel := os.Getenv("CPDTRACK_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return Server{
		Addr:              addr,
		DatabaseURL:       dbURL,
		LogLevel:          logLevel,
		CohortPageSize:    intEnv("CPDTRACK_COHORT_PAGE_SIZE", 500),
		DeadlineSweepSpec: os.Getenv("CPDTRACK_DEADLINE_SWEEP_SPEC"),
	}
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
