package runner

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/mendci/mend/internal/models"
)

// ExecFunc runs a shell command, streaming combined output, and returns its
// exit code. Swappable in tests.
type ExecFunc func(ctx context.Context, command string, output io.Writer) (int, error)

func defaultExec(ctx context.Context, command string, output io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, "bash", "-lc", command)
	cmd.Stdout = output
	cmd.Stderr = output
	err := cmd.Run()
	return exitCodeFromError(err), err
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// commandFor resolves the shell command for an action. The rerun command
// comes from the decision so the executed subset matches what was decided;
// everything else comes from configuration. Unknown action types return
// ok=false and are recorded as skipped, never failed.
func (r *Runner) commandFor(action models.Action, decision *models.Decision) (string, bool) {
	switch action.Type {
	case models.ActionRegenerateStorageState:
		return r.Config.Heal.StorageStateCommand, true
	case models.ActionReseedDB:
		return r.Config.Heal.ReseedCommand, true
	case models.ActionRerunE2ESubset:
		if decision.Rerun != nil && decision.Rerun.Command != "" {
			return decision.Rerun.Command, true
		}
		return r.Config.Heal.RerunCommand, true
	default:
		return "", false
	}
}

// runAction executes one action with a bounded timeout and returns its
// outcome. Action failures are recorded, not propagated; later actions
// (especially the final rerun) are the actual correctness check.
func (r *Runner) runAction(ctx context.Context, action models.Action, command string) models.ActionOutcome {
	timeout := r.Config.Heal.ActionTimeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	actionCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output := newTailWriter(r.OutputTailLines)
	start := time.Now()
	exitCode, err := r.Exec(actionCtx, command, output)
	elapsed := time.Since(start)

	outcome := models.ActionOutcome{
		Type:       action.Type,
		OK:         err == nil && exitCode == 0,
		ExitCode:   exitCode,
		Command:    command,
		OutputTail: output.String(),
	}

	event := r.Logger.Info()
	if !outcome.OK {
		event = r.Logger.Warn()
	}
	event.
		Str("action", string(action.Type)).
		Int("exit_code", exitCode).
		Dur("elapsed", elapsed).
		Msg("action finished")
	return outcome
}
