package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mendci/mend/internal/models"
)

const attemptsFile = "attempts.json"

// AttemptStore is the durable remediation counter. A single document holds
// the counter for the current run; loading it under a different run_id resets
// the counter to zero, so attempts never leak across runs.
//
// The execution runner is the only writer. CI serializes reruns of the same
// run in practice, but writes still go through rename-based replacement
// rather than assuming that.
type AttemptStore struct {
	path string
}

// NewAttemptStore creates an AttemptStore under dir.
func NewAttemptStore(dir string) *AttemptStore {
	return &AttemptStore{path: filepath.Join(dir, attemptsFile)}
}

// Path returns the attempt document path.
func (s *AttemptStore) Path() string {
	return s.path
}

// Load returns the attempt state for runID. A missing document, a malformed
// document, or a document recorded for a different run all yield a fresh
// zero-attempt state.
func (s *AttemptStore) Load(runID string) (models.AttemptState, error) {
	fresh := models.AttemptState{RunID: runID, Attempts: 0}
	if runID == "" {
		return fresh, models.ErrMissingRunID
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fresh, nil
		}
		return fresh, fmt.Errorf("failed to read attempt state: %w", err)
	}

	var state models.AttemptState
	if err := json.Unmarshal(data, &state); err != nil {
		// Treat a corrupt counter as absent. Resetting to zero grants at
		// most one extra remediation cycle, still bounded by max_attempts.
		return fresh, nil
	}
	if state.RunID != runID || state.Attempts < 0 {
		return fresh, nil
	}
	return state, nil
}

// Increment bumps and persists the counter for runID, returning the stored
// state. Persisting happens before any action runs so a crash mid-execution
// still consumes an attempt.
func (s *AttemptStore) Increment(runID string) (models.AttemptState, error) {
	state, err := s.Load(runID)
	if err != nil {
		return state, err
	}
	state.Attempts++
	if err := s.save(state); err != nil {
		return state, err
	}
	return state, nil
}

// Reset clears the counter for runID.
func (s *AttemptStore) Reset(runID string) error {
	if runID == "" {
		return models.ErrMissingRunID
	}
	return s.save(models.AttemptState{RunID: runID, Attempts: 0})
}

func (s *AttemptStore) save(state models.AttemptState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	return writeJSONAtomic(s.path, state)
}
