package contextprep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mendci/mend/internal/logging"
	"github.com/mendci/mend/internal/models"
)

// maxResponseBytes bounds how much of the classifier response is read and
// recorded in the context document.
const maxResponseBytes = 256 * 1024

// Classifier calls the external classification service. One attempt per
// invocation; retries would be redundant with the per-run rerun budget.
type Classifier struct {
	client *http.Client
	url    string
	token  string
	logger zerolog.Logger
}

// NewClassifier returns a classifier client with a bounded timeout.
func NewClassifier(url, token string, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Classifier{
		client: &http.Client{Timeout: timeout},
		url:    url,
		token:  token,
		logger: logging.Component("classifier"),
	}
}

// ClassifyRequest is the JSON body sent to the classification service.
type ClassifyRequest struct {
	PlaywrightLog string `json:"playwright_log"`
	BackendLog    string `json:"backend_log"`
	RunID         string `json:"run_id"`
	RunAttempt    int    `json:"run_attempt"`
	JobName       string `json:"job_name"`
	Timestamp     string `json:"timestamp"`
	Branch        string `json:"branch"`
	Commit        string `json:"commit"`
	Status        string `json:"status"`
}

// classifyResponse is the loosely typed upstream payload. Every field is
// optional and nothing here is trusted until unwrapped.
type classifyResponse struct {
	ErrorType            string          `json:"error_type"`
	SelfHealPlan         string          `json:"self_heal_plan"`
	FixAgentInstructions json.RawMessage `json:"fix_agent_instructions"`
}

// Classify posts the request and defensively unwraps the response. The raw
// response body (bounded) is returned for the context document. A nil
// Analysis with a non-nil error means the call degraded; callers continue
// without a classification.
func (c *Classifier) Classify(ctx context.Context, req ClassifyRequest) (*models.Analysis, string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal classify request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build classify request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+c.token)

	response, err := c.client.Do(request)
	if err != nil {
		return nil, "", fmt.Errorf("classification request failed: %w", err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	raw := string(body)
	if readErr != nil {
		return nil, raw, fmt.Errorf("failed to read classification response: %w", readErr)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, raw, fmt.Errorf("classification service returned status %d", response.StatusCode)
	}

	var parsed classifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, raw, fmt.Errorf("classification response is not JSON: %w", err)
	}

	analysis := &models.Analysis{
		Classification:       models.NormalizeErrorType(parsed.ErrorType),
		SelfHealPlan:         parsed.SelfHealPlan,
		FixAgentInstructions: unwrapInstructions(parsed.FixAgentInstructions),
	}
	c.logger.Debug().
		Str("error_type", string(analysis.Classification)).
		Int("instructions", len(analysis.FixAgentInstructions)).
		Msg("classification received")
	return analysis, raw, nil
}

// unwrapInstructions accepts either a JSON array of strings or a single
// string; anything else yields nil.
func unwrapInstructions(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}
