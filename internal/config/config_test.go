package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2, cfg.Heal.MaxAttempts)
	assert.Equal(t, 200, cfg.Patch.MaxLines)
	assert.Contains(t, cfg.Patch.AllowedPaths, "tests/**")
	assert.Equal(t, "failure", cfg.Run.Status)
}

func TestDefaultConfigReadsGitHubEnv(t *testing.T) {
	t.Setenv("GITHUB_RUN_ID", "123456")
	t.Setenv("GITHUB_RUN_ATTEMPT", "2")
	t.Setenv("GITHUB_JOB", "e2e")
	t.Setenv("GITHUB_REF_NAME", "main")
	t.Setenv("GITHUB_SHA", "deadbeef")

	cfg := DefaultConfig()
	assert.Equal(t, "123456", cfg.Run.RunID)
	assert.Equal(t, 2, cfg.Run.RunAttempt)
	assert.Equal(t, "e2e", cfg.Run.JobName)
	assert.Equal(t, "main", cfg.Run.Branch)
	assert.Equal(t, "deadbeef", cfg.Run.Commit)
}

func TestDefaultConfigBadRunAttemptFallsBack(t *testing.T) {
	t.Setenv("GITHUB_RUN_ATTEMPT", "not-a-number")
	assert.Equal(t, 1, DefaultConfig().Run.RunAttempt)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad logging level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad logging format", func(c *Config) { c.Logging.Format = "xml" }},
		{"empty state dir", func(c *Config) { c.State.Dir = "" }},
		{"zero spec path limit", func(c *Config) { c.Logs.SpecPathLimit = 0 }},
		{"zero max attempts", func(c *Config) { c.Heal.MaxAttempts = 0 }},
		{"zero patch max lines", func(c *Config) { c.Patch.MaxLines = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestHistoryPathDefaultsIntoStateDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.State.Dir = "/var/lib/mend"
	assert.Equal(t, filepath.Join("/var/lib/mend", "history.db"), cfg.HistoryPath())

	cfg.History.Path = "/tmp/custom.db"
	assert.Equal(t, "/tmp/custom.db", cfg.HistoryPath())
}
