package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		prune      int
		jsonOutput bool
		showReport string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.storeValue()
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd.Context())
			out := cmd.OutOrStdout()

			if cmd.Flags().Changed("prune") {
				removed, err := st.PruneRuns(runCtx, prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d runs\n", removed)
				return nil
			}

			runs, err := st.ListRuns(runCtx, limit)
			if err != nil {
				return err
			}
			if showReport != "" {
				for _, run := range runs {
					if run.JobID == showReport || strconv.FormatInt(run.ID, 10) == showReport {
						fmt.Fprint(out, run.ReportText)
						return nil
					}
				}
				return fmt.Errorf("no run %q in the last %d entries", showReport, len(runs))
			}
			if jsonOutput {
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					strconv.FormatInt(run.ID, 10),
					run.FinishedAt.Local().Format(time.DateTime),
					run.Source,
					run.Status,
					strconv.Itoa(run.Warnings),
					strconv.Itoa(run.Errors),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Finished", "Source", "Status", "Warnings", "Errors"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 shows all)")
	cmd.Flags().IntVar(&prune, "prune", 0, "Keep only the newest N runs and delete the rest")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&showReport, "report", "", "Print the stored report of the run with this id or job id")
	return cmd
}
