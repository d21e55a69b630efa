package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CPDTRACK_ADDR", "")
	t.Setenv("CPDTRACK_DATABASE_URL", "")
	t.Setenv("CPDTRACK_COHORT_PAGE_SIZE", "")

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 500, cfg.CohortPageSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CPDTRACK_ADDR", ":9090")
	t.Setenv("CPDTRACK_COHORT_PAGE_SIZE", "250")
	t.Setenv("CPDTRACK_LOG_LEVEL", "debug")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 250, cfg.CohortPageSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnvRejectsBadSizes(t *testing.T) {
	t.Setenv("CPDTRACK_COHORT_PAGE_SIZE", "-5")

	cfg := FromEnv()
	assert.Equal(t, 500, cfg.CohortPageSize)
}
