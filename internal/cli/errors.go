// Package cli provides structured error output helpers.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/mendci/mend/internal/models"
)

// Exit codes. Guardrail rejections and degraded classifications are
// successful outcomes and exit 0; only malformed input and internal failures
// are errors.
const (
	exitOK       = 0
	exitInternal = 1
	exitInput    = 2
)

// ErrorEnvelope is the JSON error response shape.
type ErrorEnvelope struct {
	Error ErrorPayload `json:"error"`
}

// ErrorPayload carries structured error details.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ExitError carries an exit code and whether output was already printed.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// inputError wraps err so it exits with the input-error code.
func inputError(err error) error {
	return &ExitError{Code: exitInput, Err: err}
}

func inputErrorf(format string, args ...any) error {
	return inputError(fmt.Errorf(format, args...))
}

func handleCLIError(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Printed {
			return exitErr
		}
		if exitErr.Err != nil {
			err = exitErr.Err
		}
	}

	exitCode := exitCodeFromError(err)
	if exitErr != nil && exitErr.Code != 0 {
		exitCode = exitErr.Code
	}

	if jsonOutput {
		_ = WriteOutput(os.Stdout, buildErrorEnvelope(err, exitCode))
	} else {
		fmt.Fprintln(os.Stderr, err.Error())
	}

	return &ExitError{
		Code:    exitCode,
		Err:     err,
		Printed: true,
	}
}

func buildErrorEnvelope(err error, exitCode int) ErrorEnvelope {
	payload := ErrorPayload{
		Code:    "ERR_INTERNAL",
		Message: err.Error(),
	}
	if exitCode == exitInput {
		payload.Code = "ERR_INPUT"
	}
	switch {
	case errors.Is(err, models.ErrDocumentNotFound):
		payload.Hint = "run the earlier pipeline steps first (mend prepare, mend decide)"
	case errors.Is(err, models.ErrMissingRunID):
		payload.Hint = "set --run-id, MEND_RUN_RUN_ID, or run inside GitHub Actions"
	}
	return payload.envelope()
}

func (p ErrorPayload) envelope() ErrorEnvelope {
	return ErrorEnvelope{Error: p}
}

// exitCodeFromError classifies errors into exit codes: malformed or missing
// inputs exit 2, everything else unexpected exits 1.
func exitCodeFromError(err error) int {
	if err == nil {
		return exitOK
	}
	switch {
	case errors.Is(err, models.ErrDocumentNotFound),
		errors.Is(err, models.ErrMalformedDocument),
		errors.Is(err, models.ErrMissingRunID),
		errors.Is(err, models.ErrInvalidRunAttempt),
		errors.Is(err, models.ErrEmptyPatch):
		return exitInput
	default:
		return exitInternal
	}
}
