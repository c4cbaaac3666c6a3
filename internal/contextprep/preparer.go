// Package contextprep collects run metadata and logs, consults the external
// classification service, and produces the normalized run context document.
// The preparer must never fail a pass because the classifier is unavailable;
// every upstream failure degrades to a context without a classification.
package contextprep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mendci/mend/internal/config"
	"github.com/mendci/mend/internal/logging"
	"github.com/mendci/mend/internal/models"
	"github.com/mendci/mend/internal/store"
)

// maxLogBytes caps how much of each log is sent to the classifier. Only the
// tail is kept; failures show up at the end of CI logs.
const maxLogBytes = 200 * 1024

// Preparer builds and persists run context documents.
type Preparer struct {
	Config     *config.Config
	Store      *store.Store
	Classifier *Classifier
	Logger     zerolog.Logger
	Now        func() time.Time
}

// New creates a Preparer. The classifier is wired only when both a URL and a
// token are configured; otherwise classification is skipped, not failed.
func New(cfg *config.Config, docs *store.Store) *Preparer {
	p := &Preparer{
		Config: cfg,
		Store:  docs,
		Logger: logging.Component("contextprep"),
		Now:    time.Now,
	}
	if cfg.Classifier.URL != "" && cfg.Classifier.Token != "" {
		p.Classifier = NewClassifier(cfg.Classifier.URL, cfg.Classifier.Token, cfg.Classifier.Timeout)
	}
	return p
}

// Prepare assembles the run context for the current job attempt and writes it
// to the document store. It returns the written context.
func (p *Preparer) Prepare(ctx context.Context) (*models.RunContext, error) {
	run := p.Config.Run
	if run.RunID == "" {
		return nil, models.ErrMissingRunID
	}
	if run.RunAttempt < 1 {
		return nil, models.ErrInvalidRunAttempt
	}

	playwrightLog, playwrightBytes := p.readLog(p.Config.Logs.PlaywrightPath)
	backendLog, backendBytes := p.readLog(p.Config.Logs.BackendPath)

	doc := &models.RunContext{
		Version:    models.DocumentVersion,
		RunID:      run.RunID,
		RunAttempt: run.RunAttempt,
		JobName:    run.JobName,
		Timestamp:  p.Now().UTC(),
		Branch:     run.Branch,
		Commit:     run.Commit,
		Status:     run.Status,
		Logs: models.LogBundle{
			PlaywrightPath:     p.Config.Logs.PlaywrightPath,
			PlaywrightBytes:    playwrightBytes,
			BackendPath:        p.Config.Logs.BackendPath,
			BackendBytes:       backendBytes,
			ExtractedSpecPaths: ExtractSpecPaths(playwrightLog, p.Config.Logs.SpecPathLimit),
		},
	}

	p.classify(ctx, doc, playwrightLog, backendLog)

	if err := p.Store.WriteContext(doc); err != nil {
		return nil, fmt.Errorf("failed to write context document: %w", err)
	}

	p.Logger.Info().
		Str("run_id", doc.RunID).
		Int("run_attempt", doc.RunAttempt).
		Str("error_type", string(doc.ErrorType())).
		Int("spec_paths", len(doc.Logs.ExtractedSpecPaths)).
		Msg("context prepared")
	return doc, nil
}

// classify fills in the developer_agent and analysis sections. All failure
// modes are recorded on the document and never propagated.
func (p *Preparer) classify(ctx context.Context, doc *models.RunContext, playwrightLog, backendLog string) {
	if p.Classifier == nil {
		doc.DeveloperAgent = models.DeveloperAgent{
			Source: "none",
			Error:  "classification credentials not configured",
		}
		p.Logger.Warn().Msg("classifier not configured, continuing without classification")
		return
	}

	analysis, raw, err := p.Classifier.Classify(ctx, ClassifyRequest{
		PlaywrightLog: tail(playwrightLog, maxLogBytes),
		BackendLog:    tail(backendLog, maxLogBytes),
		RunID:         doc.RunID,
		RunAttempt:    doc.RunAttempt,
		JobName:       doc.JobName,
		Timestamp:     doc.Timestamp.Format(time.RFC3339),
		Branch:        doc.Branch,
		Commit:        doc.Commit,
		Status:        doc.Status,
	})

	doc.DeveloperAgent = models.DeveloperAgent{
		Source:        "cloud-agent",
		CloudAgentURL: p.Config.Classifier.URL,
		Response:      raw,
	}
	if err != nil {
		doc.DeveloperAgent.Error = err.Error()
		p.Logger.Warn().Err(err).Msg("classification degraded")
		return
	}
	doc.Analysis = analysis
}

// readLog reads a log file, treating a missing file as empty.
func (p *Preparer) readLog(path string) (string, int64) {
	if path == "" {
		return "", 0
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.Logger.Warn().Err(err).Str("path", path).Msg("failed to read log")
		}
		return "", 0
	}
	return string(data), int64(len(data))
}

func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
