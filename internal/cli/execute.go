package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/mendci/mend/internal/db"
	"github.com/mendci/mend/internal/models"
	"github.com/mendci/mend/internal/runner"
	"github.com/mendci/mend/internal/store"
)

func init() {
	rootCmd.AddCommand(executeCmd)
}

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Run the remediation plan under attempt-budget guardrails",
	Long: `Execute reads the decision document and runs its action plan. Guardrails
are checked first: the workflow rerun counter, the stored per-run attempt
budget, and the policy verdict. Any failing guardrail yields a skipped report
and exit code 0; a skipped pass is a successful outcome, not an error.

The report document is written exactly once, as the last step, on every path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.Run.RunID == "" {
			return inputError(models.ErrMissingRunID)
		}

		docs := store.New(appConfig.State.Dir)
		decision, err := docs.ReadDecision(appConfig.Run.RunID)
		if err != nil {
			return err
		}

		// The context document enriches the report but its absence is not
		// fatal; the decision carries everything the guardrails need.
		runCtx, err := docs.ReadContext(appConfig.Run.RunID)
		if err != nil && !errors.Is(err, models.ErrDocumentNotFound) {
			return err
		}

		attempts := store.NewAttemptStore(appConfig.State.Dir)
		ledger := openLedger(cmd.Context())
		if ledger != nil {
			defer ledger.Close()
		}
		var passes *db.PassRepository
		if ledger != nil {
			passes = db.NewPassRepository(ledger)
		}

		report, err := runner.New(appConfig, docs, attempts, passes).Execute(cmd.Context(), decision, runCtx)
		if err != nil {
			return err
		}

		return WriteOutput(os.Stdout, executeSummary{
			RunID:       report.RunID,
			Status:      report.Status,
			Reason:      report.Reason,
			Attempt:     report.Attempt,
			MaxAttempts: report.MaxAttempts,
			Actions:     len(report.Actions),
		})
	},
}

// openLedger opens the history database best-effort. A broken ledger never
// blocks remediation.
func openLedger(ctx context.Context) *db.DB {
	if !appConfig.History.Enabled {
		return nil
	}
	ledger, err := db.OpenAndMigrate(ctx, appConfig.HistoryPath())
	if err != nil {
		logger.Warn().Err(err).Msg("history ledger unavailable")
		return nil
	}
	return ledger
}

type executeSummary struct {
	RunID       string              `json:"run_id"`
	Status      models.ReportStatus `json:"status"`
	Reason      models.SkipReason   `json:"reason,omitempty"`
	Attempt     int                 `json:"attempt,omitempty"`
	MaxAttempts int                 `json:"max_attempts"`
	Actions     int                 `json:"actions"`
}

func (s executeSummary) String() string {
	if s.Status == models.ReportStatusSkipped {
		return "run " + s.RunID + " skipped: " + string(s.Reason)
	}
	return "run " + s.RunID + " finished with status " + string(s.Status)
}
