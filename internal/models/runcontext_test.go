package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeErrorType(t *testing.T) {
	for _, known := range KnownErrorTypes {
		assert.Equal(t, known, NormalizeErrorType(string(known)))
	}

	assert.Equal(t, ErrorTypeUnknown, NormalizeErrorType(""))
	assert.Equal(t, ErrorTypeUnknown, NormalizeErrorType("cosmic-rays"))
	assert.Equal(t, ErrorTypeUnknown, NormalizeErrorType("Infra/Network"), "matching is case-sensitive")
}

func TestRunContextErrorTypeNilSafety(t *testing.T) {
	var nilCtx *RunContext
	assert.Equal(t, ErrorTypeUnknown, nilCtx.ErrorType())
	assert.Nil(t, nilCtx.FixAgentInstructions())

	noAnalysis := &RunContext{RunID: "run-1"}
	assert.Equal(t, ErrorTypeUnknown, noAnalysis.ErrorType())
	assert.Nil(t, noAnalysis.FixAgentInstructions())
}

func TestRunContextErrorTypeNormalizesAnalysis(t *testing.T) {
	ctx := &RunContext{
		Analysis: &Analysis{Classification: ErrorType("something-new")},
	}
	assert.Equal(t, ErrorTypeUnknown, ctx.ErrorType())

	ctx.Analysis.Classification = ErrorTypeAuthSession
	assert.Equal(t, ErrorTypeAuthSession, ctx.ErrorType())
}

func TestDecisionMaxAttempts(t *testing.T) {
	var nilDecision *Decision
	assert.Equal(t, 1, nilDecision.MaxAttempts())

	noPlan := &Decision{RunID: "run-1"}
	assert.Equal(t, 1, noPlan.MaxAttempts())

	withPlan := &Decision{Rerun: &RerunPlan{MaxAttempts: 2}}
	assert.Equal(t, 2, withPlan.MaxAttempts())

	zeroPlan := &Decision{Rerun: &RerunPlan{}}
	assert.Equal(t, 1, zeroPlan.MaxAttempts())
}
