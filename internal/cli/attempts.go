package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mendci/mend/internal/models"
	"github.com/mendci/mend/internal/store"
)

func init() {
	rootCmd.AddCommand(attemptsCmd)
	attemptsCmd.AddCommand(attemptsShowCmd)
	attemptsCmd.AddCommand(attemptsResetCmd)
}

var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "Inspect or reset the per-run remediation counter",
}

var attemptsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the attempt state for the current run",
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.Run.RunID == "" {
			return inputError(models.ErrMissingRunID)
		}
		attempts := store.NewAttemptStore(appConfig.State.Dir)
		state, err := attempts.Load(appConfig.Run.RunID)
		if err != nil {
			return err
		}
		return WriteOutput(os.Stdout, attemptsSummary{state})
	},
}

var attemptsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the attempt counter for the current run",
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.Run.RunID == "" {
			return inputError(models.ErrMissingRunID)
		}
		attempts := store.NewAttemptStore(appConfig.State.Dir)
		if err := attempts.Reset(appConfig.Run.RunID); err != nil {
			return err
		}
		state, err := attempts.Load(appConfig.Run.RunID)
		if err != nil {
			return err
		}
		return WriteOutput(os.Stdout, attemptsSummary{state})
	},
}

type attemptsSummary struct {
	models.AttemptState
}

func (s attemptsSummary) String() string {
	return "run " + s.RunID + ": " + strconv.Itoa(s.Attempts) + " attempt(s) used"
}
