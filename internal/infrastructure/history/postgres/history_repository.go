package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/grovelight/leafsense/internal/core/domain"
)

// HistoryRepository keeps the bounded most-recent analysis history. The
// bound is enforced on every save inside the insert transaction, so the
// table never holds more than the configured number of rows for longer
// than one write.
type HistoryRepository struct {
	db    *sql.DB
	limit int
}

func NewHistoryRepository(db *sql.DB, limit int) *HistoryRepository {
	if limit <= 0 {
		limit = 25
	}
	return &HistoryRepository{db: db, limit: limit}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082201)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	filename TEXT NOT NULL,
	prediction JSONB NOT NULL,
	outcome JSONB NOT NULL,
	snapshot_path TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Save inserts the record and trims the table to the bound in the same
// transaction. It returns the snapshot paths of displaced rows so the
// caller can release their images.
func (r *HistoryRepository) Save(ctx context.Context, record domain.AnalysisRecord) ([]string, error) {
	predictionJSON, err := json.Marshal(record.Prediction)
	if err != nil {
		return nil, fmt.Errorf("marshal prediction: %w", err)
	}
	outcomeJSON, err := json.Marshal(record.Outcome)
	if err != nil {
		return nil, fmt.Errorf("marshal outcome: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// The API process and the archiver worker may both save the same
	// record; the second write is a no-op.
	_, err = tx.ExecContext(ctx, `
INSERT INTO analyses (id, created_at, filename, prediction, outcome, snapshot_path)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING
`,
		record.ID, record.CreatedAt, record.Filename, predictionJSON, outcomeJSON, record.SnapshotPath,
	)
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
DELETE FROM analyses
WHERE id NOT IN (
	SELECT id FROM analyses ORDER BY created_at DESC, id DESC LIMIT $1
)
RETURNING snapshot_path
`, r.limit)
	if err != nil {
		return nil, fmt.Errorf("trim analyses: %w", err)
	}

	var evicted []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan evicted snapshot: %w", err)
		}
		if path != "" {
			evicted = append(evicted, path)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate evicted snapshots: %w", err)
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save tx: %w", err)
	}
	return evicted, nil
}

func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, created_at, filename, prediction, outcome, snapshot_path
FROM analyses
ORDER BY created_at DESC, id DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AnalysisRecord, 0, limit)
	for rows.Next() {
		var record domain.AnalysisRecord
		var predictionRaw, outcomeRaw []byte

		if err := rows.Scan(&record.ID, &record.CreatedAt, &record.Filename, &predictionRaw, &outcomeRaw, &record.SnapshotPath); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if err := json.Unmarshal(predictionRaw, &record.Prediction); err != nil {
			return nil, fmt.Errorf("unmarshal prediction: %w", err)
		}
		if err := json.Unmarshal(outcomeRaw, &record.Outcome); err != nil {
			return nil, fmt.Errorf("unmarshal outcome: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return records, nil
}
