package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cohen-center/survey-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	status            TEXT NOT NULL DEFAULT 'running',
	overrides_version TEXT NOT NULL,
	total             INTEGER NOT NULL DEFAULT 0,
	kept              INTEGER NOT NULL DEFAULT 0,
	duplicates        INTEGER NOT NULL DEFAULT 0,
	dropped           INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS responses (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	record_id     TEXT NOT NULL,
	postal_code   INTEGER,
	org_bucket    INTEGER,
	role_code     INTEGER NOT NULL,
	identity_key  INTEGER,
	role_category TEXT NOT NULL,
	role_rank     INTEGER NOT NULL,
	status        INTEGER NOT NULL,
	weight        REAL NOT NULL,
	extra         TEXT,
	PRIMARY KEY (run_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_responses_identity_key ON responses(identity_key);
CREATE INDEX IF NOT EXISTS idx_responses_status ON responses(status);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, overridesVersion string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, overrides_version, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), overridesVersion, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:               id,
		Status:           model.RunStatusRunning,
		OverridesVersion: overridesVersion,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, kept, duplicates, dropped int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, total = ?, kept = ?, duplicates = ?, dropped = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), kept+duplicates+dropped, kept, duplicates, dropped, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, overrides_version, total, kept, duplicates, dropped, created_at, updated_at
		 FROM runs WHERE id = ?`, runID)

	var r model.Run
	var status string
	err := row.Scan(&r.ID, &status, &r.OverridesVersion, &r.Total, &r.Kept, &r.Duplicates, &r.Dropped, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	r.Status = model.RunStatus(status)
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, overrides_version, total, kept, duplicates, dropped, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var status string
		if err := rows.Scan(&r.ID, &status, &r.OverridesVersion, &r.Total, &r.Kept, &r.Duplicates, &r.Dropped, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) SaveResolved(ctx context.Context, runID string, records []model.ResolvedRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO responses
		 (run_id, record_id, postal_code, org_bucket, role_code, identity_key, role_category, role_rank, status, weight, extra)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	var saved int64
	for _, rr := range records {
		var extra any
		if len(rr.Extra) > 0 {
			b, err := json.Marshal(rr.Extra)
			if err != nil {
				return saved, eris.Wrapf(err, "sqlite: marshal extra for %s", rr.RecordID)
			}
			extra = string(b)
		}

		_, err := stmt.ExecContext(ctx,
			runID, rr.RecordID,
			nullableInt(rr.PostalCode), nullableInt(rr.OrgBucket), rr.RawRoleCode,
			nullableInt64(rr.IdentityKey), string(rr.RoleCategory), rr.RoleRank,
			int(rr.Status), rr.Weight, extra,
		)
		if err != nil {
			return saved, eris.Wrapf(err, "sqlite: insert response %s", rr.RecordID)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return saved, eris.Wrap(err, "sqlite: commit tx")
	}
	return saved, nil
}

func (s *SQLiteStore) ListResolved(ctx context.Context, filter ResolvedFilter) ([]model.ResolvedRecord, error) {
	query := `SELECT record_id, postal_code, org_bucket, role_code, identity_key, role_category, role_rank, status, weight, extra
	          FROM responses WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, int(*filter.Status))
	}
	query += ` ORDER BY record_id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list responses")
	}
	defer rows.Close()

	var out []model.ResolvedRecord
	for rows.Next() {
		rr, err := scanResolved(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate responses")
}

func scanResolved(rows *sql.Rows) (model.ResolvedRecord, error) {
	var rr model.ResolvedRecord
	var postal, bucket sql.NullInt64
	var identityKey sql.NullInt64
	var category string
	var status int
	var extra sql.NullString

	err := rows.Scan(&rr.RecordID, &postal, &bucket, &rr.RawRoleCode, &identityKey,
		&category, &rr.RoleRank, &status, &rr.Weight, &extra)
	if err != nil {
		return rr, eris.Wrap(err, "sqlite: scan response")
	}

	if postal.Valid {
		v := int(postal.Int64)
		rr.PostalCode = &v
	}
	if bucket.Valid {
		v := int(bucket.Int64)
		rr.OrgBucket = &v
	}
	if identityKey.Valid {
		v := identityKey.Int64
		rr.IdentityKey = &v
	}
	rr.RoleCategory = model.RoleCategory(category)
	rr.Status = model.DuplicateStatus(status)
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &rr.Extra); err != nil {
			return rr, eris.Wrapf(err, "sqlite: unmarshal extra for %s", rr.RecordID)
		}
	}
	return rr, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// checkRowsAffected converts a zero-row UPDATE into a not-found error.
func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", entity, id)
	}
	return nil
}
