package lifecycle

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/threadline-ai/recall/internal/model"
)

// Journal records completed sweeps in a local sqlite file so operators can
// audit transition history without scraping logs.
type Journal struct {
	db *sql.DB
}

const journalSchema = `
CREATE TABLE IF NOT EXISTS sweep_journal (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    tenant_id   TEXT    NOT NULL,
    started_at  TEXT    NOT NULL,
    finished_at TEXT    NOT NULL,
    scanned     INTEGER NOT NULL,
    promoted    INTEGER NOT NULL,
    archived    INTEGER NOT NULL,
    expired     INTEGER NOT NULL,
    demoted     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sweep_journal_tenant ON sweep_journal (tenant_id, id DESC);
`

// OpenJournal opens (creating if needed) the sweep journal at path. Use
// ":memory:" for tests.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sweep journal")
	}
	// modernc sqlite serializes writes itself; a single conn avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(journalSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init sweep journal schema")
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Record appends one sweep result.
func (j *Journal) Record(ctx context.Context, res model.SweepResult) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO sweep_journal
		   (tenant_id, started_at, finished_at, scanned, promoted, archived, expired, demoted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.TenantID,
		res.StartedAt.UTC().Format(time.RFC3339Nano),
		res.FinishedAt.UTC().Format(time.RFC3339Nano),
		res.Scanned, res.Promoted, res.Archived, res.Expired, res.Demoted,
	)
	return errors.Wrap(err, "record sweep")
}

// Recent returns the newest sweep results for a tenant, newest first.
func (j *Journal) Recent(ctx context.Context, tenant string, limit int) ([]model.SweepResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT tenant_id, started_at, finished_at, scanned, promoted, archived, expired, demoted
		   FROM sweep_journal
		  WHERE tenant_id = ?
		  ORDER BY id DESC
		  LIMIT ?`,
		tenant, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query sweep journal")
	}
	defer rows.Close()

	var out []model.SweepResult
	for rows.Next() {
		var res model.SweepResult
		var started, finished string
		if err := rows.Scan(&res.TenantID, &started, &finished,
			&res.Scanned, &res.Promoted, &res.Archived, &res.Expired, &res.Demoted); err != nil {
			return nil, errors.Wrap(err, "scan sweep journal row")
		}
		if ts, perr := time.Parse(time.RFC3339Nano, started); perr == nil {
			res.StartedAt = ts
		}
		if ts, perr := time.Parse(time.RFC3339Nano, finished); perr == nil {
			res.FinishedAt = ts
		}
		out = append(out, res)
	}
	return out, errors.Wrap(rows.Err(), "iterate sweep journal")
}
