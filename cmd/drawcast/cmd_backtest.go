package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/drawcast/internal/domain/model"
)

func newBacktestCmd(load loadFunc) *cobra.Command {
	var (
		window int
		name   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay a strategy over the last draws",
		Long: `Predict each of the last --window draws from only the draws before it
and report top-1, top-6 and normal-overlap results.

Examples:
  drawcast backtest
  drawcast backtest --window 50 --strategy heatmap
  drawcast backtest --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, stop, err := startService(cmd, load)
			if err != nil {
				return err
			}
			defer stop()

			report, err := svc.Backtest(cmd.Context(), window, name)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return printReport(cmd, report)
		},
	}
	cmd.Flags().IntVar(&window, "window", 0, "Number of trailing draws to replay (0 uses the configured window)")
	cmd.Flags().StringVar(&name, "strategy", "", "Strategy to replay: ensemble or heatmap (default: the first configured strategy)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report *model.BacktestReport) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tACTUAL\tPRIMARY\tTOP6\tOVERLAP\tSTRATEGY")
	for _, st := range report.Steps {
		hit := "-"
		if st.Top6Hit {
			hit = "hit"
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%d\t%s\n",
			st.Period, st.ActualSpecial, st.Primary, hit, st.NormalOverlap, st.Strategy)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	s := report.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "\nrun %s  strategy %s  steps %d\n", report.RunID, report.Strategy, s.Steps)
	fmt.Fprintf(cmd.OutOrStdout(), "top-1 %d (%.2f%%)  top-6 %d (%.2f%%)  mean normal overlap %.2f\n",
		s.Top1Hits, s.Top1Rate*100, s.Top6Hits, s.Top6Rate*100, s.MeanNormalOverlap)
	return nil
}
