package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mendci/mend/internal/db"
)

// PreflightError carries a message and suggested next steps.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
	Err      error
}

// Error implements error.
func (e *PreflightError) Error() string {
	if e == nil {
		return ""
	}

	parts := []string{e.Message}
	if e.Err != nil {
		parts[0] = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Hint != "" {
		parts = append(parts, "Hint: "+e.Hint)
	}
	if e.NextStep != "" {
		parts = append(parts, "Next: "+e.NextStep)
	}
	return strings.Join(parts, "\n")
}

// preflightCheck is one named environment check. Fatal checks fail the
// command; the rest only warn.
type preflightCheck struct {
	Name  string
	Fatal bool
	Run   func(ctx context.Context) error
}

type preflightResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Fatal  bool   `json:"fatal"`
	Detail string `json:"detail,omitempty"`
}

type preflightSummary struct {
	Results []preflightResult `json:"results"`
	OK      bool              `json:"ok"`
}

func (s *preflightSummary) String() string {
	var sb strings.Builder
	for _, r := range s.Results {
		mark := "ok"
		if !r.OK {
			mark = "WARN"
			if r.Fatal {
				mark = "FAIL"
			}
		}
		fmt.Fprintf(&sb, "%-4s %s", mark, r.Name)
		if r.Detail != "" {
			fmt.Fprintf(&sb, ": %s", r.Detail)
		}
		sb.WriteString("\n")
	}
	if s.OK {
		sb.WriteString("Preflight passed\n")
	} else {
		sb.WriteString("Preflight failed\n")
	}
	return sb.String()
}

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check that the environment is ready for a self-healing pass",
	Long: `Preflight validates run identity, state directory access, log locations,
classifier credentials, and the history ledger before any pass runs.

Only run identity and state directory problems are fatal; everything else the
engine degrades around.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary := runPreflightChecks(cmd.Context())
		if err := WriteOutput(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
		if !summary.OK {
			return inputErrorf("preflight failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}

func runPreflightChecks(ctx context.Context) *preflightSummary {
	checks := []preflightCheck{
		{Name: "run identity", Fatal: true, Run: checkRunIdentity},
		{Name: "state directory", Fatal: true, Run: checkStateDir},
		{Name: "playwright log", Run: func(context.Context) error { return checkLogFile(appConfig.Logs.PlaywrightPath) }},
		{Name: "backend log", Run: func(context.Context) error { return checkLogFile(appConfig.Logs.BackendPath) }},
		{Name: "classifier credentials", Run: checkClassifierCredentials},
		{Name: "history ledger", Run: checkHistoryLedger},
	}

	summary := &preflightSummary{OK: true}
	for _, check := range checks {
		result := preflightResult{Name: check.Name, OK: true, Fatal: check.Fatal}
		if err := runCheck(ctx, check); err != nil {
			result.OK = false
			result.Detail = err.Error()
			if check.Fatal {
				summary.OK = false
			}
		}
		summary.Results = append(summary.Results, result)
	}
	return summary
}

func runCheck(ctx context.Context, check preflightCheck) error {
	if check.Run == nil {
		return nil
	}
	return check.Run(ctx)
}

func checkRunIdentity(context.Context) error {
	if appConfig.Run.RunID == "" {
		return &PreflightError{
			Message:  "run id is not set",
			Hint:     "Set GITHUB_RUN_ID, MEND_RUN_RUN_ID, or pass --run-id",
			NextStep: "mend preflight --run-id <id>",
		}
	}
	if appConfig.Run.RunAttempt < 1 {
		return &PreflightError{
			Message: "run attempt must be at least 1",
			Hint:    "Set GITHUB_RUN_ATTEMPT or pass --run-attempt",
		}
	}
	return nil
}

func checkStateDir(context.Context) error {
	dir := appConfig.State.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PreflightError{
			Message: "state directory is not creatable",
			Hint:    "Check permissions on " + dir,
			Err:     err,
		}
	}
	probe := filepath.Join(dir, ".preflight")
	if err := os.WriteFile(probe, []byte("ok\n"), 0o644); err != nil {
		return &PreflightError{
			Message: "state directory is not writable",
			Hint:    "Check permissions on " + dir,
			Err:     err,
		}
	}
	os.Remove(probe)
	return nil
}

func checkLogFile(path string) error {
	if path == "" {
		return fmt.Errorf("no path configured, log treated as empty")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s not found, log treated as empty", path)
	}
	return nil
}

func checkClassifierCredentials(context.Context) error {
	if appConfig.Classifier.URL == "" || appConfig.Classifier.Token == "" {
		return fmt.Errorf("not configured, classification will be skipped")
	}
	return nil
}

func checkHistoryLedger(ctx context.Context) error {
	if !appConfig.History.Enabled {
		return fmt.Errorf("disabled, passes will not be recorded")
	}
	database, err := db.OpenAndMigrate(ctx, appConfig.HistoryPath())
	if err != nil {
		return fmt.Errorf("unavailable, recording will be skipped: %v", err)
	}
	database.Close()
	return nil
}
