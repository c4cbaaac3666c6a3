package models

import "time"

// DocumentVersion is written into every durable document so consumers can
// detect format drift across engine upgrades.
const DocumentVersion = 1

// ErrorType is the closed failure classification vocabulary. The classifier
// may return anything; values outside this set are normalized to unknown.
type ErrorType string

const (
	ErrorTypeInfraNetwork     ErrorType = "infra/network"
	ErrorTypeFrontendTiming   ErrorType = "frontend-timing"
	ErrorTypeFrontendSelector ErrorType = "frontend-selector"
	ErrorTypeAuthSession      ErrorType = "auth/session"
	ErrorTypeBackendLogic     ErrorType = "backend-logic"
	ErrorTypeUnknown          ErrorType = "unknown"
)

// KnownErrorTypes lists every value Normalize will pass through unchanged.
var KnownErrorTypes = []ErrorType{
	ErrorTypeInfraNetwork,
	ErrorTypeFrontendTiming,
	ErrorTypeFrontendSelector,
	ErrorTypeAuthSession,
	ErrorTypeBackendLogic,
	ErrorTypeUnknown,
}

// NormalizeErrorType maps arbitrary classifier output onto the closed
// vocabulary. Empty or unrecognized values become unknown.
func NormalizeErrorType(raw string) ErrorType {
	for _, known := range KnownErrorTypes {
		if string(known) == raw {
			return known
		}
	}
	return ErrorTypeUnknown
}

// Analysis is the defensively unwrapped classifier payload. All fields are
// optional; a missing or malformed classifier response yields a nil Analysis
// on the RunContext, never a crash.
type Analysis struct {
	Classification       ErrorType `json:"classification"`
	SelfHealPlan         string    `json:"self_heal_plan,omitempty"`
	FixAgentInstructions []string  `json:"fix_agent_instructions,omitempty"`
}

// LogBundle summarizes the log material gathered for one job attempt.
type LogBundle struct {
	PlaywrightPath     string   `json:"playwright_path,omitempty"`
	PlaywrightBytes    int64    `json:"playwright_bytes"`
	BackendPath        string   `json:"backend_path,omitempty"`
	BackendBytes       int64    `json:"backend_bytes"`
	ExtractedSpecPaths []string `json:"extracted_spec_paths"`
}

// DeveloperAgent records the interaction with the external classification
// service, including its failure mode when the call degraded.
type DeveloperAgent struct {
	Source        string `json:"source"`
	CloudAgentURL string `json:"cloud_agent_url,omitempty"`
	Response      string `json:"response,omitempty"`
	Error         string `json:"error,omitempty"`
}

// RunContext is the normalized record for one CI job attempt. It is produced
// once per invocation and immutable after write.
type RunContext struct {
	Version        int            `json:"version"`
	RunID          string         `json:"run_id"`
	RunAttempt     int            `json:"run_attempt"`
	JobName        string         `json:"job_name"`
	Timestamp      time.Time      `json:"timestamp"`
	Branch         string         `json:"branch"`
	Commit         string         `json:"commit"`
	Status         string         `json:"status"`
	Logs           LogBundle      `json:"logs"`
	DeveloperAgent DeveloperAgent `json:"developer_agent"`
	Analysis       *Analysis      `json:"analysis,omitempty"`
}

// ErrorType returns the classified failure type, or unknown when the
// classifier never produced one.
func (c *RunContext) ErrorType() ErrorType {
	if c == nil || c.Analysis == nil {
		return ErrorTypeUnknown
	}
	return NormalizeErrorType(string(c.Analysis.Classification))
}

// FixAgentInstructions returns classifier guidance for the downstream fix
// agent, or nil when none was supplied.
func (c *RunContext) FixAgentInstructions() []string {
	if c == nil || c.Analysis == nil {
		return nil
	}
	return c.Analysis.FixAgentInstructions
}
