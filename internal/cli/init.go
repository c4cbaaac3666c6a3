package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a mend.yaml with the current effective configuration",
	Long: `Write a mend.yaml config file seeded from the current effective
configuration, including any environment overrides in effect.

The file lands in the working directory so it sits next to the repository the
CI jobs run against.`,
	Example: `  mend init
  mend init --force`,
	RunE: runInit,
}

type initResult struct {
	ConfigPath string `json:"config_path"`
	Created    bool   `json:"created"`
}

func (r *initResult) String() string {
	if r.Created {
		return "Created " + r.ConfigPath
	}
	return r.ConfigPath + " already exists (use --force to overwrite)"
}

func runInit(cmd *cobra.Command, args []string) error {
	const path = "mend.yaml"

	result := &initResult{ConfigPath: path}
	if _, err := os.Stat(path); err == nil && !initForce {
		return WriteOutput(cmd.OutOrStdout(), result)
	}

	// Never write the bearer token to disk.
	cfg := *appConfig
	cfg.Classifier.Token = ""

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Mend configuration. Values here are overridden by MEND_* environment\n")
	sb.WriteString("# variables and CLI flags.\n")
	sb.Write(data)

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	result.Created = true
	return WriteOutput(cmd.OutOrStdout(), result)
}
