package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mendci/mend/internal/models"
)

// Pass is one recorded execution pass.
type Pass struct {
	ID            string              `json:"id"`
	RunID         string              `json:"run_id"`
	RunAttempt    int                 `json:"run_attempt"`
	Attempt       *int                `json:"attempt,omitempty"`
	MaxAttempts   int                 `json:"max_attempts"`
	Status        models.ReportStatus `json:"status"`
	Reason        models.SkipReason   `json:"reason,omitempty"`
	ErrorType     models.ErrorType    `json:"error_type,omitempty"`
	RerunExitCode *int                `json:"rerun_exit_code,omitempty"`
	ExecutedAt    time.Time           `json:"executed_at"`
}

// PassRepository handles execution pass persistence.
type PassRepository struct {
	db *DB
}

// NewPassRepository creates a new PassRepository.
func NewPassRepository(db *DB) *PassRepository {
	return &PassRepository{db: db}
}

// Record stores one pass derived from a report.
func (r *PassRepository) Record(ctx context.Context, report *models.Report, runAttempt int) error {
	if report == nil || report.RunID == "" {
		return models.ErrMissingRunID
	}

	id := report.ID
	if id == "" {
		id = uuid.New().String()
	}

	var attempt *int
	if report.Attempt > 0 {
		attempt = &report.Attempt
	}
	var rerunExit *int
	for _, outcome := range report.Actions {
		if outcome.Type == models.ActionRerunE2ESubset && !outcome.Skipped {
			code := outcome.ExitCode
			rerunExit = &code
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO passes (
			id, run_id, run_attempt, attempt, max_attempts,
			status, reason, error_type, rerun_exit_code, executed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		report.RunID,
		runAttempt,
		attempt,
		report.MaxAttempts,
		string(report.Status),
		nullableString(string(report.Reason)),
		nullableString(string(report.ContextSummary.ErrorType)),
		rerunExit,
		report.ExecutedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pass: %w", err)
	}
	return nil
}

// List returns recorded passes, newest first, limited to limit rows
// (0 means no limit).
func (r *PassRepository) List(ctx context.Context, limit int) ([]*Pass, error) {
	query := `
		SELECT id, run_id, run_attempt, attempt, max_attempts,
			status, reason, error_type, rerun_exit_code, executed_at
		FROM passes
		ORDER BY executed_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query passes: %w", err)
	}
	defer rows.Close()

	passes := make([]*Pass, 0)
	for rows.Next() {
		pass, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, pass)
	}
	return passes, rows.Err()
}

// ListByRun returns recorded passes for one run, newest first.
func (r *PassRepository) ListByRun(ctx context.Context, runID string) ([]*Pass, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, run_attempt, attempt, max_attempts,
			status, reason, error_type, rerun_exit_code, executed_at
		FROM passes
		WHERE run_id = ?
		ORDER BY executed_at DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query passes: %w", err)
	}
	defer rows.Close()

	passes := make([]*Pass, 0)
	for rows.Next() {
		pass, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, pass)
	}
	return passes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPass(row rowScanner) (*Pass, error) {
	var (
		pass       Pass
		reason     sql.NullString
		errorType  sql.NullString
		executedAt string
	)
	if err := row.Scan(
		&pass.ID,
		&pass.RunID,
		&pass.RunAttempt,
		&pass.Attempt,
		&pass.MaxAttempts,
		&pass.Status,
		&reason,
		&errorType,
		&pass.RerunExitCode,
		&executedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan pass: %w", err)
	}
	pass.Reason = models.SkipReason(reason.String)
	pass.ErrorType = models.ErrorType(errorType.String)
	if ts, err := time.Parse(time.RFC3339, executedAt); err == nil {
		pass.ExecutedAt = ts
	}
	return &pass, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
