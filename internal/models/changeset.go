package models

// ChangeStats summarizes the size of a proposed change.
type ChangeStats struct {
	FilesChanged int `json:"files_changed"`
	LinesTotal   int `json:"lines_total"`
}

// ChangeSet describes a generated code change submitted for risk assessment.
// ValidationOK is tri-state: nil means validation was never attempted.
type ChangeSet struct {
	ErrorType    ErrorType   `json:"error_type"`
	ChangedFiles []string    `json:"changed_files"`
	Stats        ChangeStats `json:"stats"`
	ValidationOK *bool       `json:"validation_ok"`
}

// RiskLevel buckets a risk score into an ordinal severity.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskAssessment is the deterministic scoring verdict for a change set.
// Factors preserve the order in which score contributions were applied.
type RiskAssessment struct {
	Score             int       `json:"score"`
	Level             RiskLevel `json:"level"`
	Factors           []string  `json:"factors"`
	AutoMergeEligible bool      `json:"auto_merge_eligible"`
}

// GateVerdict is the structural patch-safety result. A rejected patch is a
// successful terminal outcome, not an error.
type GateVerdict struct {
	Accepted     bool     `json:"accepted"`
	Reasons      []string `json:"reasons,omitempty"`
	LineCount    int      `json:"line_count"`
	TouchedFiles []string `json:"touched_files"`
}
