// Package runner executes bounded remediation plans. Guardrails are checked
// in a fixed order and any failing one short-circuits to a skipped report
// with no further side effects; the attempt counter is persisted before any
// action runs so a crash mid-execution still consumes an attempt.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mendci/mend/internal/config"
	"github.com/mendci/mend/internal/db"
	"github.com/mendci/mend/internal/logging"
	"github.com/mendci/mend/internal/models"
	"github.com/mendci/mend/internal/store"
)

const defaultOutputTailLines = 60

// Runner executes a decision against the external collaborators.
type Runner struct {
	Config          *config.Config
	Store           *store.Store
	Attempts        *store.AttemptStore
	Ledger          *db.PassRepository
	Logger          zerolog.Logger
	Exec            ExecFunc
	Now             func() time.Time
	OutputTailLines int
}

// New creates a Runner with default dependencies. The ledger is optional;
// history recording is best-effort and never fails a pass.
func New(cfg *config.Config, docs *store.Store, attempts *store.AttemptStore, ledger *db.PassRepository) *Runner {
	return &Runner{
		Config:          cfg,
		Store:           docs,
		Attempts:        attempts,
		Ledger:          ledger,
		Logger:          logging.Component("runner"),
		Exec:            defaultExec,
		Now:             time.Now,
		OutputTailLines: cfg.Heal.OutputTailLines,
	}
}

// Execute runs one execution pass for the decision. The report is written
// exactly once, unconditionally, as the last step; it is the sole externally
// observable outcome. runCtx may be nil when the context document is absent.
func (r *Runner) Execute(ctx context.Context, decision *models.Decision, runCtx *models.RunContext) (*models.Report, error) {
	if decision == nil || decision.RunID == "" {
		return nil, models.ErrMissingRunID
	}
	runAttempt := r.Config.Run.RunAttempt
	maxAttempts := decision.MaxAttempts()

	report := &models.Report{
		Version:                    models.DocumentVersion,
		ID:                         uuid.New().String(),
		RunID:                      decision.RunID,
		ExecutedAt:                 r.Now().UTC(),
		MaxAttempts:                maxAttempts,
		Decision:                   *decision,
		ContextSummary:             summarize(decision, runCtx),
		Actions:                    []models.ActionOutcome{},
		RecommendationsForFixAgent: decision.RecommendationsForFixAgent,
	}

	// Guardrail 1: workflow-level rerun counter vs the declared ceiling.
	// Attempt state is left untouched.
	if runAttempt > maxAttempts {
		return r.finish(ctx, report, models.ReportStatusSkipped, models.SkipReasonRunAttemptExceeded)
	}

	// Guardrail 2: stored per-run counter.
	state, err := r.Attempts.Load(decision.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt state: %w", err)
	}
	if state.Attempts >= maxAttempts {
		return r.finish(ctx, report, models.ReportStatusSkipped, models.SkipReasonMaxAttemptsReached)
	}

	// Guardrail 3: policy.
	if !decision.Allowed {
		return r.finish(ctx, report, models.ReportStatusSkipped, models.SkipReasonNotAllowedByPolicy)
	}

	// Consume the attempt before running anything. Conservative: a crash
	// from here on still counts.
	state, err = r.Attempts.Increment(decision.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to persist attempt state: %w", err)
	}
	report.Attempt = state.Attempts

	r.Logger.Info().
		Str("run_id", decision.RunID).
		Int("attempt", state.Attempts).
		Int("max_attempts", maxAttempts).
		Msg("executing remediation plan")

	for _, action := range decision.Actions {
		command, known := r.commandFor(action, decision)
		if !known {
			r.Logger.Warn().Str("action", string(action.Type)).Msg("unknown action type, recording and continuing")
			report.Actions = append(report.Actions, models.ActionOutcome{
				Type:     action.Type,
				OK:       false,
				Skipped:  true,
				SkipNote: "unknown_action",
			})
			continue
		}
		report.Actions = append(report.Actions, r.runAction(ctx, action, command))
	}

	return r.finish(ctx, report, statusFromActions(report.Actions), "")
}

// finish stamps the terminal status, writes the report, and records the pass
// in the history ledger.
func (r *Runner) finish(ctx context.Context, report *models.Report, status models.ReportStatus, reason models.SkipReason) (*models.Report, error) {
	report.Status = status
	report.Reason = reason

	if err := r.Store.WriteReport(report); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	if r.Ledger != nil {
		if err := r.Ledger.Record(ctx, report, r.Config.Run.RunAttempt); err != nil {
			r.Logger.Warn().Err(err).Msg("failed to record pass in history ledger")
		}
	}

	r.Logger.Info().
		Str("run_id", report.RunID).
		Str("status", string(report.Status)).
		Str("reason", string(report.Reason)).
		Msg("pass complete")
	return report, nil
}

// statusFromActions derives the terminal status solely from the validating
// rerun. A plan without a rerun action leaves the status unknown.
func statusFromActions(outcomes []models.ActionOutcome) models.ReportStatus {
	for _, outcome := range outcomes {
		if outcome.Type != models.ActionRerunE2ESubset {
			continue
		}
		if outcome.OK {
			return models.ReportStatusRerunPassed
		}
		return models.ReportStatusRerunFailed
	}
	return models.ReportStatusUnknown
}

func summarize(decision *models.Decision, runCtx *models.RunContext) models.ContextSummary {
	summary := models.ContextSummary{
		JobName:   decision.JobName,
		Branch:    decision.Branch,
		Commit:    decision.Commit,
		ErrorType: decision.ErrorType,
	}
	if runCtx != nil {
		summary.Status = runCtx.Status
	}
	return summary
}
