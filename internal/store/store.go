// Package store persists Mend's durable per-run documents. Every write goes
// through a temp-file-and-rename so a crashed invocation never leaves a
// half-written document for the next one to trip over.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mendci/mend/internal/models"
)

// Document file names inside a run directory.
const (
	contextFile  = "context.json"
	decisionFile = "decision.json"
	reportFile   = "report.json"
)

// Store reads and writes run-scoped JSON documents under a state directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

// RunDir returns the directory holding documents for one run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.dir, runID)
}

// WriteContext persists the run context document.
func (s *Store) WriteContext(ctx *models.RunContext) error {
	if ctx == nil || ctx.RunID == "" {
		return models.ErrMissingRunID
	}
	return s.writeDoc(ctx.RunID, contextFile, ctx)
}

// ReadContext loads the run context document.
func (s *Store) ReadContext(runID string) (*models.RunContext, error) {
	var ctx models.RunContext
	if err := s.readDoc(runID, contextFile, &ctx); err != nil {
		return nil, err
	}
	return &ctx, nil
}

// WriteDecision persists the decision document.
func (s *Store) WriteDecision(decision *models.Decision) error {
	if decision == nil || decision.RunID == "" {
		return models.ErrMissingRunID
	}
	return s.writeDoc(decision.RunID, decisionFile, decision)
}

// ReadDecision loads the decision document.
func (s *Store) ReadDecision(runID string) (*models.Decision, error) {
	var decision models.Decision
	if err := s.readDoc(runID, decisionFile, &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

// WriteReport persists the report document, overwriting any prior report for
// the same run.
func (s *Store) WriteReport(report *models.Report) error {
	if report == nil || report.RunID == "" {
		return models.ErrMissingRunID
	}
	return s.writeDoc(report.RunID, reportFile, report)
}

// ReadReport loads the report document.
func (s *Store) ReadReport(runID string) (*models.Report, error) {
	var report models.Report
	if err := s.readDoc(runID, reportFile, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Store) writeDoc(runID, name string, value any) error {
	dir := s.RunDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create run dir: %w", err)
	}
	return writeJSONAtomic(filepath.Join(dir, name), value)
}

func (s *Store) readDoc(runID, name string, value any) error {
	if runID == "" {
		return models.ErrMissingRunID
	}
	path := filepath.Join(s.RunDir(runID), name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, models.ErrDocumentNotFound)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("%s: %w: %v", path, models.ErrMalformedDocument, err)
	}
	return nil
}

// writeJSONAtomic marshals value and replaces path via rename. Best-effort
// atomic; see the concurrency notes in the package doc.
func writeJSONAtomic(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
