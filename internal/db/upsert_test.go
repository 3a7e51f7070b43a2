package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestBulkUpsert(t *testing.T) {
	mock := newMockPool(t)
	cols := []string{"run_id", "record_id", "weight"}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_responses"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_responses"}, cols).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "responses" .+ ON CONFLICT \("run_id", "record_id"\) DO UPDATE SET "weight" = EXCLUDED."weight"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "responses",
		Columns:      cols,
		ConflictKeys: []string{"run_id", "record_id"},
	}, [][]any{
		{"run-1", "r1", 1.0},
		{"run-1", "r2", 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	mock := newMockPool(t)

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "responses",
		Columns:      []string{"a"},
		ConflictKeys: []string{"a"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_Validation(t *testing.T) {
	mock := newMockPool(t)
	rows := [][]any{{"x"}}

	_, err := BulkUpsert(context.Background(), mock, UpsertConfig{Table: "t", ConflictKeys: []string{"a"}}, rows)
	assert.Error(t, err)

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{Table: "t", Columns: []string{"a"}}, rows)
	assert.Error(t, err)
}
