package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mendci/mend/internal/db"
)

var (
	historyLimit int
	historyRun   string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of passes to list")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "only list passes for this run id")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded execution passes",
	Long:  `History lists execution passes recorded in the SQLite ledger, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := db.OpenAndMigrate(cmd.Context(), appConfig.HistoryPath())
		if err != nil {
			return fmt.Errorf("failed to open history ledger: %w", err)
		}
		defer ledger.Close()

		passes := db.NewPassRepository(ledger)
		var rows []*db.Pass
		if historyRun != "" {
			rows, err = passes.ListByRun(cmd.Context(), historyRun)
		} else {
			rows, err = passes.List(cmd.Context(), historyLimit)
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return WriteJSON(os.Stdout, rows)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EXECUTED AT\tRUN\tATTEMPT\tSTATUS\tREASON\tERROR TYPE")
		for _, pass := range rows {
			attempt := "-"
			if pass.Attempt != nil {
				attempt = fmt.Sprintf("%d/%d", *pass.Attempt, pass.MaxAttempts)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				pass.ExecutedAt.Format("2006-01-02 15:04:05"),
				pass.RunID,
				attempt,
				pass.Status,
				pass.Reason,
				pass.ErrorType,
			)
		}
		return w.Flush()
	},
}
