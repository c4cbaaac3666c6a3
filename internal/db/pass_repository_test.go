package db

import (
	"context"
	"testing"
	"time"

	"github.com/mendci/mend/internal/models"
)

func setupPassRepo(t *testing.T) (*PassRepository, func()) {
	t.Helper()

	database, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	if _, err := database.MigrateUp(context.Background()); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	return NewPassRepository(database), func() { database.Close() }
}

func sampleReport(runID string, status models.ReportStatus, executedAt time.Time) *models.Report {
	return &models.Report{
		Version:     models.DocumentVersion,
		ID:          "pass-" + runID + "-" + string(status),
		RunID:       runID,
		Attempt:     1,
		MaxAttempts: 2,
		Status:      status,
		ExecutedAt:  executedAt,
		ContextSummary: models.ContextSummary{
			ErrorType: models.ErrorTypeFrontendTiming,
		},
		Actions: []models.ActionOutcome{
			{Type: models.ActionReseedDB, OK: true},
			{Type: models.ActionRerunE2ESubset, OK: status == models.ReportStatusRerunPassed, ExitCode: 0},
		},
	}
}

func TestPassRepositoryRecordAndList(t *testing.T) {
	repo, cleanup := setupPassRepo(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.Record(ctx, sampleReport("run-1", models.ReportStatusRerunFailed, base), 1); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := repo.Record(ctx, sampleReport("run-2", models.ReportStatusRerunPassed, base.Add(time.Hour)), 1); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	passes, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(passes))
	}
	if passes[0].RunID != "run-2" {
		t.Errorf("expected newest first, got %q", passes[0].RunID)
	}
	if passes[0].Status != models.ReportStatusRerunPassed {
		t.Errorf("unexpected status %q", passes[0].Status)
	}
	if passes[0].ErrorType != models.ErrorTypeFrontendTiming {
		t.Errorf("unexpected error type %q", passes[0].ErrorType)
	}
	if passes[0].Attempt == nil || *passes[0].Attempt != 1 {
		t.Errorf("unexpected attempt %v", passes[0].Attempt)
	}
	if passes[0].RerunExitCode == nil || *passes[0].RerunExitCode != 0 {
		t.Errorf("unexpected rerun exit code %v", passes[0].RerunExitCode)
	}
	if !passes[0].ExecutedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("unexpected executed_at %v", passes[0].ExecutedAt)
	}
}

func TestPassRepositoryListLimit(t *testing.T) {
	repo, cleanup := setupPassRepo(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		report := sampleReport("run-1", models.ReportStatusRerunFailed, base.Add(time.Duration(i)*time.Minute))
		report.ID = ""
		if err := repo.Record(ctx, report, i+1); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	passes, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(passes))
	}
}

func TestPassRepositoryListByRun(t *testing.T) {
	repo, cleanup := setupPassRepo(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.Record(ctx, sampleReport("run-1", models.ReportStatusRerunFailed, base), 1); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := repo.Record(ctx, sampleReport("run-2", models.ReportStatusRerunPassed, base), 1); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	passes, err := repo.ListByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(passes) != 1 || passes[0].RunID != "run-1" {
		t.Fatalf("unexpected result %+v", passes)
	}
}

func TestPassRepositoryRecordSkippedPass(t *testing.T) {
	repo, cleanup := setupPassRepo(t)
	defer cleanup()
	ctx := context.Background()

	report := &models.Report{
		RunID:       "run-3",
		MaxAttempts: 2,
		Status:      models.ReportStatusSkipped,
		Reason:      models.SkipReasonMaxAttemptsReached,
		ExecutedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := repo.Record(ctx, report, 1); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	passes, err := repo.ListByRun(ctx, "run-3")
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("expected 1 pass, got %d", len(passes))
	}
	if passes[0].Reason != models.SkipReasonMaxAttemptsReached {
		t.Errorf("unexpected reason %q", passes[0].Reason)
	}
	if passes[0].Attempt != nil {
		t.Errorf("skipped pass should have no attempt, got %v", *passes[0].Attempt)
	}
	if passes[0].RerunExitCode != nil {
		t.Errorf("skipped pass should have no rerun exit code")
	}
}

func TestPassRepositoryRecordRequiresRunID(t *testing.T) {
	repo, cleanup := setupPassRepo(t)
	defer cleanup()

	if err := repo.Record(context.Background(), &models.Report{}, 1); err == nil {
		t.Fatal("expected error for missing run id")
	}
}
