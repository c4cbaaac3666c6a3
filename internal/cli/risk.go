package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mendci/mend/internal/models"
	"github.com/mendci/mend/internal/risk"
)

var (
	riskInput  string
	riskOutput string
)

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.Flags().StringVarP(&riskInput, "input", "i", "-", "change set document (JSON), - for stdin")
	riskCmd.Flags().StringVarP(&riskOutput, "output", "o", "", "write the assessment to a file instead of stdout")
}

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Score a proposed change set for auto-merge eligibility",
	Long: `Risk scores a change set on the fixed rubric (error-type base cost, scope
cost, size cost, validation adjustment) and derives auto-merge eligibility.

Scoring is pure and deterministic: identical inputs always yield the same
score, level, and eligibility. The eligibility gate is stricter than the
score; a change can score low and still be denied auto-merge.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(riskInput)
		if err != nil {
			return inputErrorf("failed to read change set: %v", err)
		}

		var change models.ChangeSet
		if err := json.Unmarshal(data, &change); err != nil {
			return inputError(fmt.Errorf("%w: %v", models.ErrMalformedDocument, err))
		}

		assessment := risk.Assess(change)
		return writeResult(riskOutput, assessment)
	},
}

func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeResult(path string, value any) error {
	if path == "" {
		return WriteJSON(os.Stdout, value)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	return WriteJSON(f, value)
}
