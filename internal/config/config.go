// Package config handles Mend configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the root configuration structure for Mend.
type Config struct {
	// Run identifies the CI run this invocation belongs to.
	Run RunConfig `yaml:"run" mapstructure:"run"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// State settings for durable per-run documents.
	State StateConfig `yaml:"state" mapstructure:"state"`

	// Logs locates the raw log material collected per job attempt.
	Logs LogsConfig `yaml:"logs" mapstructure:"logs"`

	// Classifier configures the external classification service.
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`

	// Heal configures remediation actions and the rerun budget.
	Heal HealConfig `yaml:"heal" mapstructure:"heal"`

	// Patch configures the patch safety gate.
	Patch PatchConfig `yaml:"patch" mapstructure:"patch"`

	// History configures the SQLite execution ledger.
	History HistoryConfig `yaml:"history" mapstructure:"history"`
}

// RunConfig carries the environment-supplied run identity.
type RunConfig struct {
	// RunID is the stable identifier of the CI run.
	RunID string `yaml:"run_id" mapstructure:"run_id"`

	// RunAttempt is the workflow-level rerun counter, starting at 1.
	RunAttempt int `yaml:"run_attempt" mapstructure:"run_attempt"`

	// JobName is the failing CI job.
	JobName string `yaml:"job_name" mapstructure:"job_name"`

	// Branch is the git branch under test.
	Branch string `yaml:"branch" mapstructure:"branch"`

	// Commit is the git commit under test.
	Commit string `yaml:"commit" mapstructure:"commit"`

	// Status is the reported job status (usually "failure").
	Status string `yaml:"status" mapstructure:"status"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`
}

// StateConfig locates the durable document directory.
type StateConfig struct {
	// Dir is where context/decision/report/attempt documents live.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogsConfig locates raw CI log files. Missing files are treated as empty.
type LogsConfig struct {
	// PlaywrightPath is the end-to-end test runner log.
	PlaywrightPath string `yaml:"playwright_path" mapstructure:"playwright_path"`

	// BackendPath is the application backend log.
	BackendPath string `yaml:"backend_path" mapstructure:"backend_path"`

	// SpecPathLimit caps how many failing spec paths are extracted.
	SpecPathLimit int `yaml:"spec_path_limit" mapstructure:"spec_path_limit"`
}

// ClassifierConfig configures the external classification service.
type ClassifierConfig struct {
	// URL is the classification endpoint. Empty disables classification.
	URL string `yaml:"url" mapstructure:"url"`

	// Token is the bearer token. Absence degrades the pipeline, never fails it.
	Token string `yaml:"token" mapstructure:"token"`

	// Timeout bounds the classification call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// HealConfig configures remediation execution.
type HealConfig struct {
	// MaxAttempts is the per-run remediation ceiling. Clamped to [1,2] by
	// the decision engine regardless of what is configured here.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// RerunCommand is the end-to-end rerun template; "{specs}" expands to
	// the space-joined failing spec paths when rerunning a subset.
	RerunCommand string `yaml:"rerun_command" mapstructure:"rerun_command"`

	// ReseedCommand restores the known baseline data set.
	ReseedCommand string `yaml:"reseed_command" mapstructure:"reseed_command"`

	// StorageStateCommand regenerates browser auth/session state.
	StorageStateCommand string `yaml:"storage_state_command" mapstructure:"storage_state_command"`

	// ActionTimeout bounds each individual action.
	ActionTimeout time.Duration `yaml:"action_timeout" mapstructure:"action_timeout"`

	// OutputTailLines is how many trailing output lines each action keeps.
	OutputTailLines int `yaml:"output_tail_lines" mapstructure:"output_tail_lines"`
}

// PatchConfig configures the patch safety gate.
type PatchConfig struct {
	// MaxLines is the structural patch size ceiling.
	MaxLines int `yaml:"max_lines" mapstructure:"max_lines"`

	// AllowedPaths is the path allow-list; entries are glob patterns or
	// plain prefixes.
	AllowedPaths []string `yaml:"allowed_paths" mapstructure:"allowed_paths"`
}

// HistoryConfig configures the execution history ledger.
type HistoryConfig struct {
	// Enabled controls whether passes are recorded.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the default configuration. Run identity defaults are
// taken from the standard GitHub Actions environment when present so the tool
// works in CI without a config file.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			RunID:      os.Getenv("GITHUB_RUN_ID"),
			RunAttempt: envInt("GITHUB_RUN_ATTEMPT", 1),
			JobName:    os.Getenv("GITHUB_JOB"),
			Branch:     os.Getenv("GITHUB_REF_NAME"),
			Commit:     os.Getenv("GITHUB_SHA"),
			Status:     "failure",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		State: StateConfig{
			Dir: ".mend",
		},
		Logs: LogsConfig{
			PlaywrightPath: "playwright.log",
			BackendPath:    "backend.log",
			SpecPathLimit:  3,
		},
		Classifier: ClassifierConfig{
			Timeout: 60 * time.Second,
		},
		Heal: HealConfig{
			MaxAttempts:         2,
			RerunCommand:        "npx playwright test {specs}",
			ReseedCommand:       "npm run db:seed:baseline",
			StorageStateCommand: "npx playwright test --project=setup",
			ActionTimeout:       15 * time.Minute,
			OutputTailLines:     60,
		},
		Patch: PatchConfig{
			MaxLines: 200,
			AllowedPaths: []string{
				"tests/**",
				"e2e/**",
				"playwright/**",
			},
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "", // set to State.Dir/history.db when empty
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.State.Dir == "" {
		return fmt.Errorf("state dir is required")
	}
	if c.Logs.SpecPathLimit <= 0 {
		return fmt.Errorf("spec path limit must be positive")
	}
	if c.Heal.MaxAttempts < 1 {
		return fmt.Errorf("heal max attempts must be at least 1")
	}
	if c.Patch.MaxLines <= 0 {
		return fmt.Errorf("patch max lines must be positive")
	}
	return nil
}

// HistoryPath resolves the ledger path, defaulting into the state dir.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.State.Dir, "history.db")
}

// EnsureDirectories creates the directories Mend writes into.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.State.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	return nil
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
