package models

// TransientLikelihood estimates how likely a failure is to vanish on rerun.
type TransientLikelihood string

const (
	TransientLow    TransientLikelihood = "low"
	TransientMedium TransientLikelihood = "medium"
	TransientHigh   TransientLikelihood = "high"
)

// ActionType identifies a remediation action. Dispatch is by closed enum; the
// runner records unknown values instead of failing the pass.
type ActionType string

const (
	ActionRegenerateStorageState ActionType = "regenerate_storage_state"
	ActionReseedDB               ActionType = "reseed_db"
	ActionRerunE2ESubset         ActionType = "rerun_e2e_subset"
)

// Action is one step of a remediation plan.
type Action struct {
	Type ActionType `json:"type"`
	Why  string     `json:"why"`
}

// Rerun mode values.
const (
	RerunModeSubset = "subset"
	RerunModeFull   = "full"
)

// RerunPlan describes the validating end-to-end rerun.
type RerunPlan struct {
	MaxAttempts int      `json:"max_attempts"`
	Mode        string   `json:"mode"`
	SpecPaths   []string `json:"spec_paths,omitempty"`
	Command     string   `json:"command"`
}

// Decision is the serialized output of the policy engine for one run context.
// Invariant: Actions is empty and Rerun is nil whenever Allowed is false.
type Decision struct {
	Version                    int                 `json:"version"`
	RunID                      string              `json:"run_id"`
	JobName                    string              `json:"job_name"`
	Branch                     string              `json:"branch"`
	Commit                     string              `json:"commit"`
	ErrorType                  ErrorType           `json:"error_type"`
	Allowed                    bool                `json:"allowed"`
	TransientLikelihood        TransientLikelihood `json:"transient_likelihood"`
	Reason                     string              `json:"reason"`
	Actions                    []Action            `json:"actions"`
	Rerun                      *RerunPlan          `json:"rerun"`
	RecommendationsForFixAgent []string            `json:"recommendations_for_fix_agent,omitempty"`
}

// MaxAttempts returns the declared attempt ceiling, defaulting to 1 when no
// rerun plan exists so guardrail math stays defined for disallowed decisions.
func (d *Decision) MaxAttempts() int {
	if d == nil || d.Rerun == nil || d.Rerun.MaxAttempts < 1 {
		return 1
	}
	return d.Rerun.MaxAttempts
}
