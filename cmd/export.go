package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cohen-center/survey-cli/internal/dedupe"
	"github.com/cohen-center/survey-cli/internal/ingest"
	"github.com/cohen-center/survey-cli/internal/model"
	"github.com/cohen-center/survey-cli/internal/store"
)

var (
	exportRunID  string
	exportCSV    string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export resolved responses to an .xlsx workbook",
	Long: `Writes resolved responses to an Excel workbook for analysts. The
source is either a previously imported run (--run) or a responses CSV resolved
on the fly (--csv).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if (exportRunID == "") == (exportCSV == "") {
			return eris.New("export: exactly one of --run or --csv is required")
		}

		var (
			resolved  []model.ResolvedRecord
			extraCols []string
		)

		if exportRunID != "" {
			st, err := newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			resolved, err = st.ListResolved(ctx, store.ResolvedFilter{RunID: exportRunID})
			if err != nil {
				return eris.Wrap(err, "export: list resolved")
			}
			if len(resolved) == 0 {
				return eris.Errorf("export: run %s has no resolved responses", exportRunID)
			}
		} else {
			records, cols, err := ingest.ParseResponsesCSV(exportCSV, cfg.Ingest)
			if err != nil {
				return eris.Wrap(err, "export: parse csv")
			}
			extraCols = cols

			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			resolved, err = dedupe.NewResolver(reg, cfg.Resolver.Shards).Resolve(ctx, records)
			if err != nil {
				return eris.Wrap(err, "export: run resolver")
			}
		}

		if err := ingest.ExportXLSX(resolved, extraCols, cfg.Ingest, exportOutput); err != nil {
			return eris.Wrap(err, "export: write workbook")
		}

		zap.L().Info("export complete",
			zap.String("output", exportOutput),
			zap.Int("records", len(resolved)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run ID to export from the store")
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "responses CSV to resolve and export")
	exportCmd.Flags().StringVar(&exportOutput, "output", "resolved.xlsx", "output .xlsx path")
	rootCmd.AddCommand(exportCmd)
}
