package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mendci/mend/internal/contextprep"
	"github.com/mendci/mend/internal/models"
	"github.com/mendci/mend/internal/store"
)

func init() {
	rootCmd.AddCommand(prepareCmd)
}

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Collect run metadata and logs, classify the failure",
	Long: `Prepare assembles the run context document for the current job attempt:
run identity, bounded log material, extracted failing spec paths, and the
classification returned by the external service.

Classification is best-effort. Missing credentials, timeouts, non-2xx
responses, and non-JSON payloads all degrade to a context without a
classification; prepare never fails because the classifier is unavailable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.Run.RunID == "" {
			return inputError(models.ErrMissingRunID)
		}
		if appConfig.Run.RunAttempt < 1 {
			return inputError(models.ErrInvalidRunAttempt)
		}

		docs := store.New(appConfig.State.Dir)
		preparer := contextprep.New(appConfig, docs)

		doc, err := preparer.Prepare(cmd.Context())
		if err != nil {
			return err
		}

		return WriteOutput(os.Stdout, prepareSummary{
			RunID:      doc.RunID,
			RunAttempt: doc.RunAttempt,
			ErrorType:  doc.ErrorType(),
			Classified: doc.Analysis != nil,
			SpecPaths:  doc.Logs.ExtractedSpecPaths,
		})
	},
}

type prepareSummary struct {
	RunID      string           `json:"run_id"`
	RunAttempt int              `json:"run_attempt"`
	ErrorType  models.ErrorType `json:"error_type"`
	Classified bool             `json:"classified"`
	SpecPaths  []string         `json:"spec_paths,omitempty"`
}

func (s prepareSummary) String() string {
	state := "classified"
	if !s.Classified {
		state = "unclassified"
	}
	return "context prepared for run " + s.RunID + " (" + string(s.ErrorType) + ", " + state + ")"
}
