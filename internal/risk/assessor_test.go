package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendci/mend/internal/models"
)

func boolPtr(v bool) *bool {
	return &v
}

func TestAssessRubric(t *testing.T) {
	tests := []struct {
		name         string
		change       models.ChangeSet
		wantScore    int
		wantLevel    models.RiskLevel
		wantEligible bool
	}{
		{
			name: "small validated selector fix in tests is eligible",
			change: models.ChangeSet{
				ErrorType:    models.ErrorTypeFrontendSelector,
				ChangedFiles: []string{"tests/e2e/a.spec"},
				Stats:        models.ChangeStats{FilesChanged: 1, LinesTotal: 10},
				ValidationOK: boolPtr(true),
			},
			// 1 (error) + 0 (test-only) + 1 (small) - 2 (validated)
			wantScore:    0,
			wantLevel:    models.RiskLevelLow,
			wantEligible: true,
		},
		{
			name: "backend file pushes scope cost and denies eligibility",
			change: models.ChangeSet{
				ErrorType:    models.ErrorTypeFrontendSelector,
				ChangedFiles: []string{"tests/e2e/a.spec", "backend/app/service.py"},
				Stats:        models.ChangeStats{FilesChanged: 2, LinesTotal: 50},
				ValidationOK: boolPtr(true),
			},
			// 1 + 3 (backend) + 1 - 2
			wantScore:    3,
			wantLevel:    models.RiskLevelMedium,
			wantEligible: false,
		},
		{
			name: "unknown error touching infra with failed validation is critical",
			change: models.ChangeSet{
				ErrorType:    models.ErrorTypeUnknown,
				ChangedFiles: []string{".github/workflows/e2e.yml"},
				Stats:        models.ChangeStats{FilesChanged: 1, LinesTotal: 100},
				ValidationOK: boolPtr(false),
			},
			// 5 + 10 (infra) + 2 (medium size) + 3 (failed validation)
			wantScore:    20,
			wantLevel:    models.RiskLevelCritical,
			wantEligible: false,
		},
		{
			name: "timing fix without validation attempt",
			change: models.ChangeSet{
				ErrorType:    models.ErrorTypeFrontendTiming,
				ChangedFiles: []string{"e2e/login.spec.ts"},
				Stats:        models.ChangeStats{FilesChanged: 1, LinesTotal: 20},
			},
			// 2 + 0 + 1 + 0
			wantScore:    3,
			wantLevel:    models.RiskLevelMedium,
			wantEligible: false,
		},
		{
			name: "empty change set costs only the error type",
			change: models.ChangeSet{
				ErrorType: models.ErrorTypeFrontendSelector,
			},
			// 1 + 0 (test-only vacuously) + 0 (no files) + 0
			wantScore:    1,
			wantLevel:    models.RiskLevelLow,
			wantEligible: true,
		},
		{
			name: "low score can still be denied auto-merge on size",
			change: models.ChangeSet{
				ErrorType:    models.ErrorTypeFrontendSelector,
				ChangedFiles: []string{"tests/a.spec.ts", "tests/b.spec.ts", "tests/c.spec.ts", "tests/d.spec.ts"},
				Stats:        models.ChangeStats{FilesChanged: 4, LinesTotal: 120},
				ValidationOK: boolPtr(true),
			},
			// 1 + 0 + 2 - 2 = 1, low, but 4 files > auto-merge bound of 3
			wantScore:    1,
			wantLevel:    models.RiskLevelLow,
			wantEligible: false,
		},
		{
			name: "failed validation always blocks eligibility",
			change: models.ChangeSet{
				ErrorType:    models.ErrorTypeFrontendSelector,
				ChangedFiles: []string{"tests/a.spec.ts"},
				Stats:        models.ChangeStats{FilesChanged: 1, LinesTotal: 5},
				ValidationOK: boolPtr(false),
			},
			// 1 + 0 + 1 + 3
			wantScore:    5,
			wantLevel:    models.RiskLevelMedium,
			wantEligible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(tt.change)
			assert.Equal(t, tt.wantScore, got.Score, "score")
			assert.Equal(t, tt.wantLevel, got.Level, "level")
			assert.Equal(t, tt.wantEligible, got.AutoMergeEligible, "eligibility")
			assert.NotEmpty(t, got.Factors)
		})
	}
}

func TestAssessDeterministic(t *testing.T) {
	change := models.ChangeSet{
		ErrorType:    models.ErrorTypeFrontendTiming,
		ChangedFiles: []string{"tests/e2e/appointments.spec.ts", "backend/api/slots.go"},
		Stats:        models.ChangeStats{FilesChanged: 2, LinesTotal: 44},
		ValidationOK: boolPtr(true),
	}

	first := Assess(change)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Assess(change))
	}
}

func TestLevelThresholds(t *testing.T) {
	require.Equal(t, models.RiskLevelLow, levelFor(-3))
	require.Equal(t, models.RiskLevelLow, levelFor(2))
	require.Equal(t, models.RiskLevelMedium, levelFor(3))
	require.Equal(t, models.RiskLevelMedium, levelFor(5))
	require.Equal(t, models.RiskLevelHigh, levelFor(6))
	require.Equal(t, models.RiskLevelHigh, levelFor(10))
	require.Equal(t, models.RiskLevelCritical, levelFor(11))
}

func TestClassifyScopes(t *testing.T) {
	assert.Equal(t, scopeTest, classify("tests/e2e/a.spec.ts"))
	assert.Equal(t, scopeTest, classify("./e2e/login.spec.ts"))
	assert.Equal(t, scopeBackend, classify("backend/models/user.py"))
	assert.Equal(t, scopeInfra, classify(".github/workflows/ci.yml"))
	assert.Equal(t, scopeInfra, classify("docker/Dockerfile"))
	assert.Equal(t, scopeInfra, classify("package.json"))
	assert.Equal(t, scopeOther, classify("frontend/src/App.tsx"))
}
