package cli

import (
	"github.com/spf13/cobra"

	"github.com/mendci/mend/internal/models"
	"github.com/mendci/mend/internal/patchgate"
)

var (
	gatePatch    string
	gateOutput   string
	gateMaxLines int
	gateAllow    []string
)

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.Flags().StringVarP(&gatePatch, "patch", "p", "-", "unified diff to validate, - for stdin")
	gateCmd.Flags().StringVarP(&gateOutput, "output", "o", "", "write the verdict to a file instead of stdout")
	gateCmd.Flags().IntVar(&gateMaxLines, "max-lines", 0, "override the patch line ceiling")
	gateCmd.Flags().StringArrayVar(&gateAllow, "allow", nil, "override the path allow-list (repeatable)")
}

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Structurally validate a generated patch before apply",
	Long: `Gate checks a unified diff against size and path allow-list constraints
before it is ever applied to a working tree. The check is independent of risk
scoring; a patch can be safe to apply yet too risky to auto-merge.

A rejected patch is a terminal verdict, not an error: the command exits 0 and
the verdict document carries the rejection reasons.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(gatePatch)
		if err != nil {
			return inputErrorf("failed to read patch: %v", err)
		}
		if len(data) == 0 && gatePatch != "-" {
			return inputError(models.ErrEmptyPatch)
		}

		maxLines := appConfig.Patch.MaxLines
		if gateMaxLines > 0 {
			maxLines = gateMaxLines
		}
		allowed := appConfig.Patch.AllowedPaths
		if len(gateAllow) > 0 {
			allowed = gateAllow
		}

		verdict := patchgate.New(maxLines, allowed).Check(string(data))
		if verdict.Accepted {
			logger.Info().Int("lines", verdict.LineCount).Int("files", len(verdict.TouchedFiles)).Msg("patch accepted")
		} else {
			logger.Info().Strs("reasons", verdict.Reasons).Msg("patch rejected")
		}
		return writeResult(gateOutput, verdict)
	},
}
