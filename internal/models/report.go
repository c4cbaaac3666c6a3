package models

import "time"

// ReportStatus is the terminal status of one execution pass.
type ReportStatus string

const (
	ReportStatusSkipped     ReportStatus = "skipped"
	ReportStatusRerunPassed ReportStatus = "rerun_passed"
	ReportStatusRerunFailed ReportStatus = "rerun_failed"
	ReportStatusUnknown     ReportStatus = "unknown"
)

// SkipReason explains why a pass short-circuited without side effects.
type SkipReason string

const (
	SkipReasonRunAttemptExceeded SkipReason = "run_attempt_exceeded"
	SkipReasonMaxAttemptsReached SkipReason = "max_attempts_reached"
	SkipReasonNotAllowedByPolicy SkipReason = "not_allowed_by_policy"
)

// ActionOutcome records the result of one executed action. Entries are
// append-only within a report.
type ActionOutcome struct {
	Type       ActionType `json:"type"`
	OK         bool       `json:"ok"`
	ExitCode   int        `json:"exit_code"`
	Command    string     `json:"command,omitempty"`
	OutputTail string     `json:"output_tail,omitempty"`
	Skipped    bool       `json:"skipped,omitempty"`
	SkipNote   string     `json:"skip_note,omitempty"`
}

// ContextSummary is the slice of the run context embedded in a report so the
// report stays readable without the context document.
type ContextSummary struct {
	JobName   string    `json:"job_name"`
	Branch    string    `json:"branch"`
	Commit    string    `json:"commit"`
	Status    string    `json:"status"`
	ErrorType ErrorType `json:"error_type"`
}

// Report is the sole externally observable outcome of an execution pass.
// Exactly one is written per invocation; regenerating overwrites, never
// appends.
type Report struct {
	Version                    int             `json:"version"`
	ID                         string          `json:"id"`
	RunID                      string          `json:"run_id"`
	ExecutedAt                 time.Time       `json:"executed_at"`
	Status                     ReportStatus    `json:"status"`
	Reason                     SkipReason      `json:"reason,omitempty"`
	Attempt                    int             `json:"attempt,omitempty"`
	MaxAttempts                int             `json:"max_attempts"`
	Decision                   Decision        `json:"decision"`
	ContextSummary             ContextSummary  `json:"context_summary"`
	Actions                    []ActionOutcome `json:"actions"`
	RecommendationsForFixAgent []string        `json:"recommendations_for_fix_agent,omitempty"`
}

// AttemptState is the durable per-run remediation counter. It is keyed by
// run_id and never carries across distinct runs.
type AttemptState struct {
	RunID    string `json:"run_id"`
	Attempts int    `json:"attempts"`
}
