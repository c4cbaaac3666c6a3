package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mendci/mend/internal/models"
	"github.com/mendci/mend/internal/policy"
	"github.com/mendci/mend/internal/store"
)

func init() {
	rootCmd.AddCommand(decideCmd)
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Derive a bounded remediation plan from the run context",
	Long: `Decide reads the context document written by prepare and emits the
decision document: whether self-heal is allowed, the ordered action plan, and
the rerun plan with its attempt ceiling clamped to at most 2.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.Run.RunID == "" {
			return inputError(models.ErrMissingRunID)
		}

		docs := store.New(appConfig.State.Dir)
		runCtx, err := docs.ReadContext(appConfig.Run.RunID)
		if err != nil {
			return err
		}

		decision := policy.New(appConfig).Decide(runCtx)
		if err := docs.WriteDecision(decision); err != nil {
			return err
		}

		return WriteOutput(os.Stdout, decideSummary{
			RunID:               decision.RunID,
			Allowed:             decision.Allowed,
			ErrorType:           decision.ErrorType,
			TransientLikelihood: decision.TransientLikelihood,
			Actions:             actionTypes(decision.Actions),
			Reason:              decision.Reason,
		})
	},
}

type decideSummary struct {
	RunID               string                     `json:"run_id"`
	Allowed             bool                       `json:"allowed"`
	ErrorType           models.ErrorType           `json:"error_type"`
	TransientLikelihood models.TransientLikelihood `json:"transient_likelihood"`
	Actions             []models.ActionType        `json:"actions"`
	Reason              string                     `json:"reason"`
}

func (s decideSummary) String() string {
	if !s.Allowed {
		return "self-heal not allowed for run " + s.RunID + ": " + s.Reason
	}
	return "self-heal allowed for run " + s.RunID + " (" + string(s.ErrorType) + ", likelihood " + string(s.TransientLikelihood) + ")"
}

func actionTypes(actions []models.Action) []models.ActionType {
	types := make([]models.ActionType, 0, len(actions))
	for _, action := range actions {
		types = append(types, action.Type)
	}
	return types
}
