// Package cli implements the Mend command-line interface using Cobra. Each
// subcommand corresponds to one CI job step; every invocation is a
// short-lived batch process that communicates with the next step through
// durable documents.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mendci/mend/internal/config"
	"github.com/mendci/mend/internal/logging"
)

var (
	// Global flags
	cfgFile    string
	jsonOutput bool
	verbose    bool
	noColor    bool
	logLevel   string
	logFormat  string

	// Run identity overrides
	flagRunID      string
	flagRunAttempt int

	// Global config loader and config
	configLoader *config.Loader
	appConfig    *config.Config
	logger       zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mend",
	Short: "CI self-healing and fix orchestration engine",
	Long: `Mend decides whether a failing end-to-end CI run is plausibly transient,
performs bounded, reversible remediation, and gates generated patches behind
structural safety checks and a multi-factor risk model.

Each subcommand runs as an isolated CI job step:
  prepare   Collect run metadata and logs, classify the failure
  decide    Derive a bounded remediation plan from the context
  execute   Run the plan under attempt-budget guardrails
  risk      Score a proposed change set for auto-merge eligibility
  gate      Structurally validate a generated patch before apply

All cross-step state lives in durable JSON documents keyed by run id.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute(version, commit, date string) error {
	rootCmd.Version = formatVersion(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		return handleCLIError(err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/mend/mend.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override logging format (json, console)")
	rootCmd.PersistentFlags().StringVar(&flagRunID, "run-id", "", "override the CI run id")
	rootCmd.PersistentFlags().IntVar(&flagRunAttempt, "run-attempt", 0, "override the workflow rerun counter")
}

// initConfig loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func initConfig() {
	configLoader = config.NewLoader()
	if cfgFile != "" {
		configLoader.SetConfigFile(cfgFile)
	}

	var err error
	appConfig, err = configLoader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(2)
	}

	applyCLIOverrides()
	initLogging()

	if err := appConfig.EnsureDirectories(); err != nil {
		logger.Warn().Err(err).Msg("failed to create directories")
	}
	if cfgUsed := configLoader.ConfigFileUsed(); cfgUsed != "" {
		logger.Debug().Str("config_file", cfgUsed).Msg("loaded config file")
	}
}

func applyCLIOverrides() {
	if flagRunID != "" {
		appConfig.Run.RunID = flagRunID
	}
	if flagRunAttempt > 0 {
		appConfig.Run.RunAttempt = flagRunAttempt
	}
	if logLevel != "" {
		appConfig.Logging.Level = logLevel
	}
	if verbose {
		appConfig.Logging.Level = "debug"
	}
	if logFormat != "" {
		appConfig.Logging.Format = logFormat
	}
}

func initLogging() {
	err := logging.Setup(logging.Options{
		Level:   appConfig.Logging.Level,
		Format:  appConfig.Logging.Format,
		File:    appConfig.Logging.File,
		NoColor: noColor,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	logger = logging.Component("cli")
}

func formatVersion(version, commit, date string) string {
	if commit == "none" && date == "unknown" {
		return version
	}
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}
