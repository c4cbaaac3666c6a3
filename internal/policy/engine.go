// Package policy implements the self-heal decision engine: a pure mapping
// from a run context to a bounded, ordered remediation plan.
package policy

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mendci/mend/internal/config"
	"github.com/mendci/mend/internal/logging"
	"github.com/mendci/mend/internal/models"
)

// Attempt ceiling bounds. The clamp is a hard ceiling on CI cost per run, not
// a tunable.
const (
	minAttempts = 1
	maxAttempts = 2
)

// Engine derives decisions from run contexts.
type Engine struct {
	// MaxAttempts is the configured ceiling, clamped into [1,2] at decide
	// time.
	MaxAttempts int

	// RerunCommand is the rerun template; "{specs}" expands to the failing
	// spec subset.
	RerunCommand string

	logger zerolog.Logger
}

// New creates an Engine from configuration.
func New(cfg *config.Config) *Engine {
	return &Engine{
		MaxAttempts:  cfg.Heal.MaxAttempts,
		RerunCommand: cfg.Heal.RerunCommand,
		logger:       logging.Component("policy"),
	}
}

// eligible maps error types to self-heal eligibility and transient
// likelihood. Everything absent from this table, including unknown, is not
// eligible.
var eligible = map[models.ErrorType]models.TransientLikelihood{
	models.ErrorTypeInfraNetwork:   models.TransientHigh,
	models.ErrorTypeFrontendTiming: models.TransientHigh,
	models.ErrorTypeAuthSession:    models.TransientMedium,
}

// Decide produces a complete, serializable decision for runCtx.
func (e *Engine) Decide(runCtx *models.RunContext) *models.Decision {
	errorType := runCtx.ErrorType()
	decision := &models.Decision{
		Version:                    models.DocumentVersion,
		RunID:                      runCtx.RunID,
		JobName:                    runCtx.JobName,
		Branch:                     runCtx.Branch,
		Commit:                     runCtx.Commit,
		ErrorType:                  errorType,
		TransientLikelihood:        models.TransientLow,
		Actions:                    []models.Action{},
		RecommendationsForFixAgent: runCtx.FixAgentInstructions(),
	}

	likelihood, ok := eligible[errorType]
	if !ok {
		decision.Allowed = false
		decision.Reason = fmt.Sprintf("error type %q is not recoverable by environment remediation", errorType)
		e.logger.Info().Str("run_id", runCtx.RunID).Str("error_type", string(errorType)).Msg("self-heal not allowed")
		return decision
	}

	decision.Allowed = true
	decision.TransientLikelihood = likelihood
	decision.Reason = fmt.Sprintf("error type %q is plausibly transient", errorType)

	// Order matters: cheapest, most specific fixes first, the validating
	// rerun always last so environment fixes take effect before it.
	if errorType == models.ErrorTypeAuthSession {
		decision.Actions = append(decision.Actions, models.Action{
			Type: models.ActionRegenerateStorageState,
			Why:  "session failures are usually stale storage state",
		})
	}
	decision.Actions = append(decision.Actions, models.Action{
		Type: models.ActionReseedDB,
		Why:  "restore the known data baseline before revalidating",
	})
	decision.Actions = append(decision.Actions, models.Action{
		Type: models.ActionRerunE2ESubset,
		Why:  "rerun is the actual correctness check",
	})

	decision.Rerun = e.rerunPlan(runCtx.Logs.ExtractedSpecPaths)

	e.logger.Info().
		Str("run_id", runCtx.RunID).
		Str("error_type", string(errorType)).
		Str("likelihood", string(likelihood)).
		Int("actions", len(decision.Actions)).
		Msg("self-heal allowed")
	return decision
}

func (e *Engine) rerunPlan(specPaths []string) *models.RerunPlan {
	plan := &models.RerunPlan{
		MaxAttempts: clampAttempts(e.MaxAttempts),
	}
	if len(specPaths) > 0 {
		plan.Mode = models.RerunModeSubset
		plan.SpecPaths = specPaths
		plan.Command = expandRerunCommand(e.RerunCommand, specPaths)
	} else {
		plan.Mode = models.RerunModeFull
		plan.Command = expandRerunCommand(e.RerunCommand, nil)
	}
	return plan
}

func expandRerunCommand(template string, specPaths []string) string {
	command := strings.ReplaceAll(template, "{specs}", strings.Join(specPaths, " "))
	return strings.Join(strings.Fields(command), " ")
}

func clampAttempts(n int) int {
	if n < minAttempts {
		return minAttempts
	}
	if n > maxAttempts {
		return maxAttempts
	}
	return n
}
