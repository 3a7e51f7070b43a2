package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/cohen-center/survey-cli/internal/model"
)

func TestExportXLSX(t *testing.T) {
	key := int64(600357)
	zip, bucket := 60035, 7
	records := []model.ResolvedRecord{
		{
			SurveyRecord: model.SurveyRecord{
				RecordID:    "r1",
				PostalCode:  &zip,
				OrgBucket:   &bucket,
				RawRoleCode: 1,
				Extra:       map[string]string{"city": "Highland Park"},
			},
			Resolution: model.Resolution{
				IdentityKey:  &key,
				RoleCategory: model.RoleLeadClergy,
				RoleRank:     12,
				Status:       model.StatusDrop,
				Weight:       0.0,
			},
		},
	}

	path := filepath.Join(t.TempDir(), "resolved.xlsx")
	require.NoError(t, ExportXLSX(records, []string{"city"}, testIngestConfig(), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Responses", sheet.Name)
	require.Len(t, sheet.Rows, 2)

	header := sheet.Rows[0]
	assert.Equal(t, "response_id", header.Cells[0].Value)
	assert.Equal(t, "identity_key", header.Cells[4].Value)
	assert.Equal(t, "city", header.Cells[9].Value)

	row := sheet.Rows[1]
	assert.Equal(t, "r1", row.Cells[0].Value)
	assert.Equal(t, "600357", row.Cells[4].Value)
	assert.Equal(t, "lead_clergy", row.Cells[5].Value)
	assert.Equal(t, "drop", row.Cells[7].Value)
	assert.Equal(t, "Highland Park", row.Cells[9].Value)
}
