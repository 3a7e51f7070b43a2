package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cohen-center/survey-cli/internal/dedupe"
	"github.com/cohen-center/survey-cli/internal/ingest"
	"github.com/cohen-center/survey-cli/internal/model"
)

var (
	resolveCSV    string
	resolveOutput string
	resolveFormat string
	resolveShards int
	resolveDryRun bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve duplicate responses in a CSV and assign weights",
	Long: `Reads survey responses from a CSV, groups them by organization
identity key, resolves duplicate groups against the curated override tables,
and writes the input back out with identity key, role classification,
duplicate status, and analysis weight appended.

Examples:
  # Resolve and write CSV
  survey-cli resolve --csv responses.csv --output resolved.csv

  # JSON output, sharded resolution
  survey-cli resolve --csv responses.csv --format json --shards 4

  # Parse only
  survey-cli resolve --csv responses.csv --dry-run`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		records, extraCols, err := ingest.ParseResponsesCSV(resolveCSV, cfg.Ingest)
		if err != nil {
			return eris.Wrap(err, "resolve: parse csv")
		}

		if resolveDryRun {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		shards := resolveShards
		if shards == 0 {
			shards = cfg.Resolver.Shards
		}

		resolved, err := dedupe.NewResolver(reg, shards).Resolve(ctx, records)
		if err != nil {
			return eris.Wrap(err, "resolve: run resolver")
		}

		return writeResolved(resolved, extraCols)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveCSV, "csv", "", "path to responses CSV (required)")
	resolveCmd.Flags().StringVar(&resolveOutput, "output", "", "output file (default: stdout)")
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "csv", "output format: csv or json")
	resolveCmd.Flags().IntVar(&resolveShards, "shards", 0, "concurrent identity-key shards (default from config)")
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "parse CSV and print records, skip resolution")
	_ = resolveCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(resolveCmd)
}

// loadRegistry returns the override registry, preferring a configured
// overlay file over the compiled-in tables.
func loadRegistry() (*dedupe.Registry, error) {
	if cfg.Resolver.OverridesPath == "" {
		return dedupe.NewRegistry(), nil
	}
	reg, err := dedupe.LoadRegistry(cfg.Resolver.OverridesPath)
	if err != nil {
		return nil, eris.Wrap(err, "resolve: load overrides")
	}
	zap.L().Info("loaded override tables",
		zap.String("path", cfg.Resolver.OverridesPath),
		zap.String("version", reg.Version),
	)
	return reg, nil
}

// writeResolved writes resolved records to the output file or stdout.
func writeResolved(resolved []model.ResolvedRecord, extraCols []string) error {
	var w *os.File
	if resolveOutput != "" {
		f, err := os.Create(resolveOutput)
		if err != nil {
			return eris.Wrap(err, "resolve: create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	} else {
		w = os.Stdout
	}

	if resolveFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resolved)
	}
	return ingest.WriteResolvedCSV(w, resolved, extraCols, cfg.Ingest)
}
