// Package ingest parses survey response CSVs into records and writes
// resolved output back out as CSV or XLSX.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cohen-center/survey-cli/internal/config"
	"github.com/cohen-center/survey-cli/internal/model"
)

// missingSentinels are the legacy in-band markers for a blank numeric field.
// They become nil at this boundary and never reach the engine as integers.
var missingSentinels = map[string]bool{
	"":   true,
	".":  true,
	"-1": true,
	"NA": true,
}

// ParseResponsesCSV reads survey responses from a CSV file. The columns named
// in cfg supply the engine inputs; every other column is preserved verbatim
// in the record's Extra map. The returned column list preserves the file's
// extra-column order for symmetric output.
func ParseResponsesCSV(path string, cfg config.IngestConfig) ([]model.SurveyRecord, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	records, extraCols, err := parseResponses(f, cfg)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "ingest: parse %s", path)
	}

	zap.L().Info("parsed responses",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("extra_columns", len(extraCols)),
	)
	return records, extraCols, nil
}

func parseResponses(r io.Reader, cfg config.IngestConfig) ([]model.SurveyRecord, []string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, eris.Wrap(err, "read header")
	}

	colIdx := mapColumns(header)
	for _, required := range []string{cfg.PostalColumn, cfg.BucketColumn, cfg.RoleColumn} {
		if _, ok := colIdx[strings.ToLower(required)]; !ok {
			return nil, nil, eris.Errorf("missing required column %q", required)
		}
	}

	core := map[string]bool{
		strings.ToLower(cfg.IDColumn):     true,
		strings.ToLower(cfg.PostalColumn): true,
		strings.ToLower(cfg.BucketColumn): true,
		strings.ToLower(cfg.RoleColumn):   true,
	}
	var extraCols []string
	for _, col := range header {
		if !core[strings.ToLower(strings.TrimSpace(col))] {
			extraCols = append(extraCols, strings.TrimSpace(col))
		}
	}

	var records []model.SurveyRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrapf(err, "read row %d", line+1)
		}
		line++

		rec := model.SurveyRecord{
			RecordID: strings.TrimSpace(getCol(row, colIdx, cfg.IDColumn)),
		}
		if rec.RecordID == "" {
			rec.RecordID = fmt.Sprintf("row-%d", line)
		}

		rec.PostalCode, err = parseOptionalInt(getCol(row, colIdx, cfg.PostalColumn))
		if err != nil {
			return nil, nil, eris.Wrapf(err, "row %d: column %q", line, cfg.PostalColumn)
		}
		rec.OrgBucket, err = parseOptionalInt(getCol(row, colIdx, cfg.BucketColumn))
		if err != nil {
			return nil, nil, eris.Wrapf(err, "row %d: column %q", line, cfg.BucketColumn)
		}

		role, err := parseOptionalInt(getCol(row, colIdx, cfg.RoleColumn))
		if err != nil {
			return nil, nil, eris.Wrapf(err, "row %d: column %q", line, cfg.RoleColumn)
		}
		if role != nil {
			rec.RawRoleCode = *role
		}

		if len(extraCols) > 0 {
			rec.Extra = make(map[string]string, len(extraCols))
			for _, col := range extraCols {
				rec.Extra[col] = getCol(row, colIdx, col)
			}
		}

		records = append(records, rec)
	}

	return records, extraCols, nil
}

// WriteResolvedCSV writes resolved records with the four derived columns
// appended after the core columns, followed by the passthrough columns.
func WriteResolvedCSV(w io.Writer, records []model.ResolvedRecord, extraCols []string, cfg config.IngestConfig) error {
	writer := csv.NewWriter(w)

	header := append(
		[]string{cfg.IDColumn, cfg.PostalColumn, cfg.BucketColumn, cfg.RoleColumn,
			"identity_key", "role_category", "role_rank", "duplicate_status", "weight"},
		extraCols...,
	)
	if err := writer.Write(header); err != nil {
		return eris.Wrap(err, "ingest: write header")
	}

	for _, rr := range records {
		row := []string{
			rr.RecordID,
			optionalIntString(rr.PostalCode),
			optionalIntString(rr.OrgBucket),
			strconv.Itoa(rr.RawRoleCode),
			identityKeyString(rr.IdentityKey),
			string(rr.RoleCategory),
			strconv.Itoa(rr.RoleRank),
			rr.Status.String(),
			strconv.FormatFloat(rr.Weight, 'f', 1, 64),
		}
		for _, col := range extraCols {
			row = append(row, rr.Extra[col])
		}
		if err := writer.Write(row); err != nil {
			return eris.Wrap(err, "ingest: write row")
		}
	}

	writer.Flush()
	return eris.Wrap(writer.Error(), "ingest: flush")
}

func parseOptionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if missingSentinels[strings.ToUpper(s)] {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, eris.Errorf("not an integer: %q", s)
	}
	return &v, nil
}

func optionalIntString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func identityKeyString(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

// mapColumns builds a case-insensitive column name to index map.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

// getCol gets a column value by name from a CSV record, returning empty
// string if not found.
func getCol(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[strings.ToLower(name)]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}
