package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/cohen-center/survey-cli/internal/dedupe"
)

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Show override table version, counts, and audit findings",
	Long: `Prints the active override table set as JSON: the version, the size
of each table, and any rank-keyed entries whose organization never appears in
a category drop list. Audit findings are informational; the tables are applied
exactly as curated.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		report := struct {
			Version   string         `json:"version"`
			Counts    map[string]int `json:"counts"`
			Unmatched []int64        `json:"unmatched_identity_keys,omitempty"`
		}{
			Version:   reg.Version,
			Counts:    reg.Counts(),
			Unmatched: reg.Audit(),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var overridesDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Show the compiled-in override tables, ignoring any overlay file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := dedupe.NewRegistry()

		report := struct {
			Version   string         `json:"version"`
			Counts    map[string]int `json:"counts"`
			Unmatched []int64        `json:"unmatched_identity_keys,omitempty"`
		}{
			Version:   reg.Version,
			Counts:    reg.Counts(),
			Unmatched: reg.Audit(),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	overridesCmd.AddCommand(overridesDefaultsCmd)
	rootCmd.AddCommand(overridesCmd)
}
