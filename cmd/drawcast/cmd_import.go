package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/drawcast/internal/adapters/importer"
	"github.com/okian/drawcast/pkg/logger"
)

func newImportCmd(load loadFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import draw results from an upstream payload file",
		Long: `Parse an upstream result payload (the {"code","result","data":[...]}
envelope or a bare array of {expect, openTime, openCode, zodiac} rows)
and store every new period. Rows that fail validation are reported.

Examples:
  drawcast import --file results-2024.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			svc, _, stop, err := startService(cmd, load)
			if err != nil {
				return err
			}
			defer stop()

			parsed, err := importer.ParseFile(file)
			if err != nil {
				return err
			}
			for _, bad := range parsed.Invalid {
				logger.Get().Warn(cmd.Context(), "skipping invalid row", logger.Error(bad))
			}
			res, err := svc.Import(cmd.Context(), parsed.Records)
			if err != nil {
				return err
			}
			res.Invalid = len(parsed.Invalid)
			fmt.Fprintf(cmd.OutOrStdout(), "added %d, duplicates %d, invalid %d\n", res.Added, res.Duplicates, res.Invalid)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the payload file")
	return cmd
}
