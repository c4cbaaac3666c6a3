// Package cli provides output formatting helpers for CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteOutput renders a value as indented JSON when --json is set, or a
// compact human line otherwise.
func WriteOutput(out io.Writer, value any) error {
	if jsonOutput {
		return writeJSON(out, value)
	}
	return writeHuman(out, value)
}

// WriteJSON always renders indented JSON regardless of flags. Document
// outputs (risk verdicts, gate verdicts) are JSON by contract.
func WriteJSON(out io.Writer, value any) error {
	return writeJSON(out, value)
}

func writeJSON(out io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func writeHuman(out io.Writer, value any) error {
	if s, ok := value.(fmt.Stringer); ok {
		_, err := fmt.Fprintln(out, s.String())
		return err
	}
	return writeJSON(out, value)
}
