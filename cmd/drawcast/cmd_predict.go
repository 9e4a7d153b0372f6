package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newPredictCmd(load loadFunc) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the next draw from the stored history",
		Long: `Review the prediction stored for the latest draw, then run the strategy
chain over the full history and store the new prediction.

Examples:
  drawcast predict
  drawcast predict --output prediction.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, stop, err := startService(cmd, load)
			if err != nil {
				return err
			}
			defer stop()

			res, err := svc.Predict(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			if err := writeJSON(f, res); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "prediction for period %d written to %s\n", res.Prediction.NextPeriod, output)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Write the prediction JSON to this file instead of stdout")
	return cmd
}
