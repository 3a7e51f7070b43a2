package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cohen-center/survey-cli/internal/dedupe"
	"github.com/cohen-center/survey-cli/internal/ingest"
	"github.com/cohen-center/survey-cli/internal/model"
)

var (
	importCSVPath string
	importShards  int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Resolve a responses CSV and persist the batch into the store",
	Long: `Parses a responses CSV, resolves duplicates, and writes the resolved
batch into the configured store (sqlite or postgres) under a new run. The run
row records the override table version and keep/duplicate/drop counts.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		records, _, err := ingest.ParseResponsesCSV(importCSVPath, cfg.Ingest)
		if err != nil {
			return eris.Wrap(err, "import: parse csv")
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		shards := importShards
		if shards == 0 {
			shards = cfg.Resolver.Shards
		}

		resolved, err := dedupe.NewResolver(reg, shards).Resolve(ctx, records)
		if err != nil {
			return eris.Wrap(err, "import: run resolver")
		}

		st, err := newStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.CreateRun(ctx, reg.Version)
		if err != nil {
			return eris.Wrap(err, "import: create run")
		}

		saved, err := st.SaveResolved(ctx, run.ID, resolved)
		if err != nil {
			if failErr := st.FailRun(ctx, run.ID); failErr != nil {
				zap.L().Error("failed to mark run as failed",
					zap.String("run_id", run.ID),
					zap.Error(failErr),
				)
			}
			return eris.Wrap(err, "import: save resolved batch")
		}

		var kept, duplicates, dropped int
		for _, r := range resolved {
			switch r.Status {
			case model.StatusKeep:
				kept++
			case model.StatusDuplicate:
				duplicates++
			case model.StatusDrop:
				dropped++
			}
		}

		if err := st.CompleteRun(ctx, run.ID, kept, duplicates, dropped); err != nil {
			return eris.Wrap(err, "import: complete run")
		}

		zap.L().Info("import complete",
			zap.String("run_id", run.ID),
			zap.Int64("saved", saved),
			zap.Int("kept", kept),
			zap.Int("duplicates", duplicates),
			zap.Int("dropped", dropped),
			zap.String("csv", importCSVPath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to responses CSV (required)")
	importCmd.Flags().IntVar(&importShards, "shards", 0, "concurrent identity-key shards (default from config)")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
