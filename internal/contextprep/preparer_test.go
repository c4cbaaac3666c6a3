package contextprep

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendci/mend/internal/config"
	"github.com/mendci/mend/internal/models"
	"github.com/mendci/mend/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.State.Dir = t.TempDir()
	cfg.Run.RunID = "run-9"
	cfg.Run.RunAttempt = 1
	cfg.Run.JobName = "e2e"
	cfg.Run.Branch = "main"
	cfg.Run.Commit = "abc123"
	cfg.Run.Status = "failure"
	return cfg
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPrepareWithClassifier(t *testing.T) {
	var gotAuth string
	var gotReq ClassifyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"error_type":             "frontend-timing",
			"self_heal_plan":         "rerun the timing-sensitive specs",
			"fix_agent_instructions": []string{"add an explicit wait"},
		})
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.Classifier.URL = server.URL
	cfg.Classifier.Token = "secret"
	cfg.Logs.PlaywrightPath = writeLog(t, "1) tests/e2e/appointments.spec.ts:12 timed out\n")

	p := New(cfg, store.New(cfg.State.Dir))
	doc, err := p.Prepare(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "run-9", gotReq.RunID)
	assert.Contains(t, gotReq.PlaywrightLog, "appointments.spec.ts")

	require.NotNil(t, doc.Analysis)
	assert.Equal(t, models.ErrorTypeFrontendTiming, doc.Analysis.Classification)
	assert.Equal(t, []string{"add an explicit wait"}, doc.Analysis.FixAgentInstructions)
	assert.Equal(t, "cloud-agent", doc.DeveloperAgent.Source)
	assert.Empty(t, doc.DeveloperAgent.Error)
	assert.Equal(t, []string{"tests/e2e/appointments.spec.ts"}, doc.Logs.ExtractedSpecPaths)

	// The document landed in the store.
	stored, err := p.Store.ReadContext("run-9")
	require.NoError(t, err)
	assert.Equal(t, doc.RunID, stored.RunID)
	assert.Equal(t, models.ErrorTypeFrontendTiming, stored.ErrorType())
}

func TestPrepareDegradesOnClassifierError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.Classifier.URL = server.URL
	cfg.Classifier.Token = "secret"

	doc, err := New(cfg, store.New(cfg.State.Dir)).Prepare(context.Background())
	require.NoError(t, err, "classifier failures never fail the pass")

	assert.Nil(t, doc.Analysis)
	assert.Equal(t, models.ErrorTypeUnknown, doc.ErrorType())
	assert.Contains(t, doc.DeveloperAgent.Error, "status 502")
}

func TestPrepareDegradesOnNonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.Classifier.URL = server.URL
	cfg.Classifier.Token = "secret"

	doc, err := New(cfg, store.New(cfg.State.Dir)).Prepare(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc.Analysis)
	assert.Contains(t, doc.DeveloperAgent.Error, "not JSON")
	assert.Contains(t, doc.DeveloperAgent.Response, "definitely not json")
}

func TestPrepareWithoutClassifierCredentials(t *testing.T) {
	cfg := testConfig(t)

	doc, err := New(cfg, store.New(cfg.State.Dir)).Prepare(context.Background())
	require.NoError(t, err)

	assert.Nil(t, doc.Analysis)
	assert.Equal(t, "none", doc.DeveloperAgent.Source)
	assert.Contains(t, doc.DeveloperAgent.Error, "not configured")
}

func TestPrepareMissingLogsAreEmpty(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logs.PlaywrightPath = filepath.Join(t.TempDir(), "does-not-exist.log")
	cfg.Logs.BackendPath = ""

	doc, err := New(cfg, store.New(cfg.State.Dir)).Prepare(context.Background())
	require.NoError(t, err)
	assert.Zero(t, doc.Logs.PlaywrightBytes)
	assert.Zero(t, doc.Logs.BackendBytes)
	assert.Empty(t, doc.Logs.ExtractedSpecPaths)
}

func TestPrepareValidatesRunIdentity(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run.RunID = ""
	_, err := New(cfg, store.New(cfg.State.Dir)).Prepare(context.Background())
	require.ErrorIs(t, err, models.ErrMissingRunID)

	cfg = testConfig(t)
	cfg.Run.RunAttempt = 0
	_, err = New(cfg, store.New(cfg.State.Dir)).Prepare(context.Background())
	require.ErrorIs(t, err, models.ErrInvalidRunAttempt)
}

func TestClassifierSingleStringInstructions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error_type":"auth/session","fix_agent_instructions":"refresh the storage state"}`))
	}))
	defer server.Close()

	c := NewClassifier(server.URL, "secret", time.Second)
	analysis, _, err := c.Classify(context.Background(), ClassifyRequest{RunID: "run-9"})
	require.NoError(t, err)
	assert.Equal(t, models.ErrorTypeAuthSession, analysis.Classification)
	assert.Equal(t, []string{"refresh the storage state"}, analysis.FixAgentInstructions)
}

func TestClassifierUnknownErrorTypeNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error_type":"cosmic-rays"}`))
	}))
	defer server.Close()

	c := NewClassifier(server.URL, "secret", time.Second)
	analysis, _, err := c.Classify(context.Background(), ClassifyRequest{RunID: "run-9"})
	require.NoError(t, err)
	assert.Equal(t, models.ErrorTypeUnknown, analysis.Classification)
}
