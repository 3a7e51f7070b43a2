package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cohen-center/survey-cli/internal/db"
	"github.com/cohen-center/survey-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	status            TEXT NOT NULL DEFAULT 'running',
	overrides_version TEXT NOT NULL,
	total             INTEGER NOT NULL DEFAULT 0,
	kept              INTEGER NOT NULL DEFAULT 0,
	duplicates        INTEGER NOT NULL DEFAULT 0,
	dropped           INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS responses (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	record_id     TEXT NOT NULL,
	postal_code   INTEGER,
	org_bucket    INTEGER,
	role_code     INTEGER NOT NULL,
	identity_key  BIGINT,
	role_category TEXT NOT NULL,
	role_rank     INTEGER NOT NULL,
	status        INTEGER NOT NULL,
	weight        DOUBLE PRECISION NOT NULL,
	extra         JSONB,
	PRIMARY KEY (run_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_responses_identity_key ON responses(identity_key);
CREATE INDEX IF NOT EXISTS idx_responses_status ON responses(status);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, overridesVersion string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, overrides_version, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(model.RunStatusRunning), overridesVersion, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:               id,
		Status:           model.RunStatusRunning,
		OverridesVersion: overridesVersion,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, kept, duplicates, dropped int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, total = $2, kept = $3, duplicates = $4, dropped = $5, updated_at = $6 WHERE id = $7`,
		string(model.RunStatusComplete), kept+duplicates+dropped, kept, duplicates, dropped, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, overrides_version, total, kept, duplicates, dropped, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)

	var r model.Run
	var status string
	err := row.Scan(&r.ID, &status, &r.OverridesVersion, &r.Total, &r.Kept, &r.Duplicates, &r.Dropped, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	r.Status = model.RunStatus(status)
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, overrides_version, total, kept, duplicates, dropped, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var status string
		if err := rows.Scan(&r.ID, &status, &r.OverridesVersion, &r.Total, &r.Kept, &r.Duplicates, &r.Dropped, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

var responseColumns = []string{
	"run_id", "record_id", "postal_code", "org_bucket", "role_code",
	"identity_key", "role_category", "role_rank", "status", "weight", "extra",
}

func (s *PostgresStore) SaveResolved(ctx context.Context, runID string, records []model.ResolvedRecord) (int64, error) {
	rows := make([][]any, 0, len(records))
	for _, rr := range records {
		var extra any
		if len(rr.Extra) > 0 {
			b, err := json.Marshal(rr.Extra)
			if err != nil {
				return 0, eris.Wrapf(err, "postgres: marshal extra for %s", rr.RecordID)
			}
			extra = b
		}
		rows = append(rows, []any{
			runID, rr.RecordID,
			nullableInt(rr.PostalCode), nullableInt(rr.OrgBucket), rr.RawRoleCode,
			nullableInt64(rr.IdentityKey), string(rr.RoleCategory), rr.RoleRank,
			int(rr.Status), rr.Weight, extra,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "responses",
		Columns:      responseColumns,
		ConflictKeys: []string{"run_id", "record_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save resolved")
	}
	return n, nil
}

func (s *PostgresStore) ListResolved(ctx context.Context, filter ResolvedFilter) ([]model.ResolvedRecord, error) {
	query := `SELECT record_id, postal_code, org_bucket, role_code, identity_key, role_category, role_rank, status, weight, extra
	          FROM responses WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		args = append(args, filter.RunID)
		query += ` AND run_id = $1`
	}
	if filter.Status != nil {
		args = append(args, int(*filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY record_id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += ` OFFSET $` + strconv.Itoa(len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list responses")
	}
	defer rows.Close()

	var out []model.ResolvedRecord
	for rows.Next() {
		var rr model.ResolvedRecord
		var postal, bucket, identityKey *int64
		var category string
		var status int
		var extra []byte

		err := rows.Scan(&rr.RecordID, &postal, &bucket, &rr.RawRoleCode, &identityKey,
			&category, &rr.RoleRank, &status, &rr.Weight, &extra)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan response")
		}

		if postal != nil {
			v := int(*postal)
			rr.PostalCode = &v
		}
		if bucket != nil {
			v := int(*bucket)
			rr.OrgBucket = &v
		}
		rr.IdentityKey = identityKey
		rr.RoleCategory = model.RoleCategory(category)
		rr.Status = model.DuplicateStatus(status)
		if len(extra) > 0 {
			if err := json.Unmarshal(extra, &rr.Extra); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal extra for %s", rr.RecordID)
			}
		}
		out = append(out, rr)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate responses")
}
