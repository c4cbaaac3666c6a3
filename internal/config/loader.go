package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// ConfigFileUsed returns the config file Viper loaded, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// expandPaths expands ~ in all path-related config fields.
func expandPaths(cfg *Config) {
	cfg.State.Dir = expandTilde(cfg.State.Dir)
	cfg.Logging.File = expandTilde(cfg.Logging.File)
	cfg.Logs.PlaywrightPath = expandTilde(cfg.Logs.PlaywrightPath)
	cfg.Logs.BackendPath = expandTilde(cfg.Logs.BackendPath)
	cfg.History.Path = expandTilde(cfg.History.Path)
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("mend")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "mend"))
	}
	homeDir, _ := os.UserHomeDir()
	if homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "mend"))
	}
	v.AddConfigPath(".")

	// Environment variables - MEND_ prefix, dots become underscores
	// (e.g. MEND_CLASSIFIER_TOKEN, MEND_RUN_RUN_ID).
	v.SetEnvPrefix("MEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults so viper knows every key exists for env binding.
	v.SetDefault("run.run_id", cfg.Run.RunID)
	v.SetDefault("run.run_attempt", cfg.Run.RunAttempt)
	v.SetDefault("run.job_name", cfg.Run.JobName)
	v.SetDefault("run.branch", cfg.Run.Branch)
	v.SetDefault("run.commit", cfg.Run.Commit)
	v.SetDefault("run.status", cfg.Run.Status)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("state.dir", cfg.State.Dir)
	v.SetDefault("logs.playwright_path", cfg.Logs.PlaywrightPath)
	v.SetDefault("logs.backend_path", cfg.Logs.BackendPath)
	v.SetDefault("logs.spec_path_limit", cfg.Logs.SpecPathLimit)
	v.SetDefault("classifier.url", cfg.Classifier.URL)
	v.SetDefault("classifier.token", cfg.Classifier.Token)
	v.SetDefault("classifier.timeout", cfg.Classifier.Timeout)
	v.SetDefault("heal.max_attempts", cfg.Heal.MaxAttempts)
	v.SetDefault("heal.rerun_command", cfg.Heal.RerunCommand)
	v.SetDefault("heal.reseed_command", cfg.Heal.ReseedCommand)
	v.SetDefault("heal.storage_state_command", cfg.Heal.StorageStateCommand)
	v.SetDefault("heal.action_timeout", cfg.Heal.ActionTimeout)
	v.SetDefault("heal.output_tail_lines", cfg.Heal.OutputTailLines)
	v.SetDefault("patch.max_lines", cfg.Patch.MaxLines)
	v.SetDefault("patch.allowed_paths", cfg.Patch.AllowedPaths)
	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.path", cfg.History.Path)
}

func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}
