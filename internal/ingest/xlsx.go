package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/cohen-center/survey-cli/internal/config"
	"github.com/cohen-center/survey-cli/internal/model"
)

// ExportXLSX writes resolved records to an .xlsx workbook for analysts.
// Column layout matches WriteResolvedCSV.
func ExportXLSX(records []model.ResolvedRecord, extraCols []string, cfg config.IngestConfig, path string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Responses")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range []string{cfg.IDColumn, cfg.PostalColumn, cfg.BucketColumn, cfg.RoleColumn,
		"identity_key", "role_category", "role_rank", "duplicate_status", "weight"} {
		header.AddCell().Value = col
	}
	for _, col := range extraCols {
		header.AddCell().Value = col
	}

	for _, rr := range records {
		row := sheet.AddRow()
		row.AddCell().Value = rr.RecordID
		row.AddCell().Value = optionalIntString(rr.PostalCode)
		row.AddCell().Value = optionalIntString(rr.OrgBucket)
		row.AddCell().SetInt(rr.RawRoleCode)
		row.AddCell().Value = identityKeyString(rr.IdentityKey)
		row.AddCell().Value = string(rr.RoleCategory)
		row.AddCell().SetInt(rr.RoleRank)
		row.AddCell().Value = rr.Status.String()
		row.AddCell().SetFloatWithFormat(rr.Weight, "0.0")
		for _, col := range extraCols {
			row.AddCell().Value = rr.Extra[col]
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}

	zap.L().Info("exported workbook",
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return nil
}
