package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohen-center/survey-cli/internal/config"
	"github.com/cohen-center/survey-cli/internal/model"
)

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		IDColumn:     "response_id",
		PostalColumn: "zip",
		BucketColumn: "org_bucket",
		RoleColumn:   "role_code",
	}
}

func TestParseResponses(t *testing.T) {
	csvData := `response_id,zip,org_bucket,role_code,congregation_name,city
r1,12345,0,1,Beth Shalom,Albany
r2,12345,0,12,Beth Shalom,Albany
r3,-1,3,2,Temple Emanuel,Boston
r4,2134,.,5,Ohav Zedek,Brighton
`
	records, extraCols, err := parseResponses(strings.NewReader(csvData), testIngestConfig())
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"congregation_name", "city"}, extraCols)

	assert.Equal(t, "r1", records[0].RecordID)
	require.NotNil(t, records[0].PostalCode)
	assert.Equal(t, 12345, *records[0].PostalCode)
	require.NotNil(t, records[0].OrgBucket)
	assert.Equal(t, 0, *records[0].OrgBucket)
	assert.Equal(t, 1, records[0].RawRoleCode)
	assert.Equal(t, "Beth Shalom", records[0].Extra["congregation_name"])

	// Sentinels become nil, never negative integers.
	assert.Nil(t, records[2].PostalCode)
	assert.Nil(t, records[3].OrgBucket)
}

func TestParseResponses_CaseInsensitiveHeader(t *testing.T) {
	csvData := "Response_ID,ZIP,Org_Bucket,Role_Code\nr1,11111,2,3\n"
	records, _, err := parseResponses(strings.NewReader(csvData), testIngestConfig())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 11111, *records[0].PostalCode)
}

func TestParseResponses_MissingColumn(t *testing.T) {
	csvData := "response_id,zip,role_code\nr1,11111,3\n"
	_, _, err := parseResponses(strings.NewReader(csvData), testIngestConfig())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "org_bucket")
}

func TestParseResponses_MalformedInteger(t *testing.T) {
	csvData := "response_id,zip,org_bucket,role_code\nr1,abcde,0,1\n"
	_, _, err := parseResponses(strings.NewReader(csvData), testIngestConfig())
	assert.Error(t, err)
}

func TestParseResponses_GeneratedRecordID(t *testing.T) {
	csvData := "response_id,zip,org_bucket,role_code\n,11111,0,1\n"
	records, _, err := parseResponses(strings.NewReader(csvData), testIngestConfig())
	require.NoError(t, err)
	assert.Equal(t, "row-2", records[0].RecordID)
}

func TestParseResponsesCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	content := "response_id,zip,org_bucket,role_code\nr1,11111,0,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, _, err := ParseResponsesCSV(path, testIngestConfig())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestWriteResolvedCSV(t *testing.T) {
	key := int64(123450)
	zip, bucket := 12345, 0
	records := []model.ResolvedRecord{
		{
			SurveyRecord: model.SurveyRecord{
				RecordID:    "r1",
				PostalCode:  &zip,
				OrgBucket:   &bucket,
				RawRoleCode: 1,
				Extra:       map[string]string{"city": "Albany"},
			},
			Resolution: model.Resolution{
				IdentityKey:  &key,
				RoleCategory: model.RoleLeadClergy,
				RoleRank:     12,
				Status:       model.StatusKeep,
				Weight:       1.0,
			},
		},
		{
			SurveyRecord: model.SurveyRecord{RecordID: "r2", RawRoleCode: 12},
			Resolution: model.Resolution{
				RoleCategory: model.RoleOther,
				RoleRank:     1,
				Status:       model.StatusKeep,
				Weight:       1.0,
			},
		},
	}

	var buf bytes.Buffer
	err := WriteResolvedCSV(&buf, records, []string{"city"}, testIngestConfig())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "response_id,zip,org_bucket,role_code,identity_key,role_category,role_rank,duplicate_status,weight,city", lines[0])
	assert.Equal(t, "r1,12345,0,1,123450,lead_clergy,12,keep,1.0,Albany", lines[1])
	assert.Equal(t, "r2,,,12,,other,1,keep,1.0,", lines[2])
}
