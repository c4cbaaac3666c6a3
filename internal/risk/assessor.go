// Package risk scores proposed code changes and derives auto-merge
// eligibility. Assess is a pure function: identical inputs always produce
// identical output, so every verdict can be replayed and explained.
package risk

import (
	"fmt"
	"path"
	"strings"

	"github.com/mendci/mend/internal/models"
)

// Auto-merge size bounds. Deliberately stricter than the scoring tiers: a
// change can score low and still be denied auto-merge on size.
const (
	autoMergeMaxFiles = 3
	autoMergeMaxLines = 100
)

// scope classifies a changed file by path.
type scope int

const (
	scopeTest scope = iota
	scopeBackend
	scopeInfra
	scopeOther
)

var testPrefixes = []string{"tests/", "test/", "e2e/", "playwright/", "__tests__/"}

var backendPrefixes = []string{"backend/", "server/", "api/", "src/server/"}

var infraPrefixes = []string{".github/", "infra/", "infrastructure/", "terraform/", "deploy/", "docker/", "config/", "ci/"}

var infraFiles = map[string]struct{}{
	"dockerfile":         {},
	"docker-compose.yml": {},
	"makefile":           {},
	".env":               {},
	"package.json":       {},
	"go.mod":             {},
}

// Assess scores a change set against the fixed rubric and derives the
// auto-merge gate.
func Assess(change models.ChangeSet) models.RiskAssessment {
	score := 0
	factors := make([]string, 0, 4)

	add := func(points int, format string, args ...any) {
		score += points
		factors = append(factors, fmt.Sprintf("%s: %+d", fmt.Sprintf(format, args...), points))
	}

	// Error-type base cost.
	errorType := models.NormalizeErrorType(string(change.ErrorType))
	switch errorType {
	case models.ErrorTypeFrontendSelector:
		add(1, "error type %s", errorType)
	case models.ErrorTypeFrontendTiming:
		add(2, "error type %s", errorType)
	default:
		add(5, "error type %s", errorType)
	}

	// Scope cost, mutually exclusive. Infra/config dominates everything;
	// any non-test code short of that costs like a backend change.
	touched := classifyAll(change.ChangedFiles)
	switch {
	case touched[scopeInfra]:
		add(10, "infrastructure or config files touched")
	case touched[scopeBackend] || touched[scopeOther]:
		add(3, "non-test code touched")
	default:
		add(0, "test-scoped files only")
	}

	// Size cost, tiered.
	files := change.Stats.FilesChanged
	lines := change.Stats.LinesTotal
	switch {
	case files == 0:
		add(0, "no files changed")
	case files <= 2 && lines <= 50:
		add(1, "small change (%d files, %d lines)", files, lines)
	case files <= 4 && lines <= 150:
		add(2, "medium change (%d files, %d lines)", files, lines)
	default:
		add(5, "large change (%d files, %d lines)", files, lines)
	}

	// Validation adjustment.
	switch {
	case change.ValidationOK == nil:
		add(0, "validation not attempted")
	case *change.ValidationOK:
		add(-2, "automated validation passed")
	default:
		add(3, "automated validation failed")
	}

	level := levelFor(score)

	testOnly := !touched[scopeBackend] && !touched[scopeInfra] && !touched[scopeOther]
	validationAcceptable := change.ValidationOK == nil || *change.ValidationOK
	eligible := level == models.RiskLevelLow &&
		testOnly &&
		files <= autoMergeMaxFiles &&
		lines <= autoMergeMaxLines &&
		validationAcceptable

	return models.RiskAssessment{
		Score:             score,
		Level:             level,
		Factors:           factors,
		AutoMergeEligible: eligible,
	}
}

func levelFor(score int) models.RiskLevel {
	switch {
	case score <= 2:
		return models.RiskLevelLow
	case score <= 5:
		return models.RiskLevelMedium
	case score <= 10:
		return models.RiskLevelHigh
	default:
		return models.RiskLevelCritical
	}
}

func classifyAll(files []string) map[scope]bool {
	touched := make(map[scope]bool, 4)
	for _, file := range files {
		touched[classify(file)] = true
	}
	return touched
}

func classify(file string) scope {
	normalized := strings.TrimPrefix(path.Clean(strings.ReplaceAll(file, "\\", "/")), "./")
	lower := strings.ToLower(normalized)

	if _, ok := infraFiles[path.Base(lower)]; ok {
		return scopeInfra
	}
	for _, prefix := range infraPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return scopeInfra
		}
	}
	for _, prefix := range testPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return scopeTest
		}
	}
	for _, prefix := range backendPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return scopeBackend
		}
	}
	return scopeOther
}
