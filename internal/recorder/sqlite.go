package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
)

// SQLiteRecorder archives uploads to a local SQLite database. Amounts are
// stored as decimal strings so nothing is lost to float rounding.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets report queries read while uploads write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite archive opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ingest_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id      TEXT NOT NULL,
			timestamp     INTEGER NOT NULL,
			date          TEXT NOT NULL,
			total_usd     TEXT NOT NULL,
			total_uzs     TEXT NOT NULL,
			total_debtors INTEGER,
			agent_count   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ingest_date ON ingest_snapshots(date)`,

		`CREATE TABLE IF NOT EXISTS agent_snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id     TEXT NOT NULL,
			date         TEXT NOT NULL,
			agent        TEXT NOT NULL,
			total_usd    TEXT NOT NULL,
			total_uzs    TEXT NOT NULL,
			debtor_count INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agent_date ON agent_snapshots(agent, date)`,

		`CREATE TABLE IF NOT EXISTS failed_files (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id  TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			file      TEXT,
			reason    TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(ctx context.Context, snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO ingest_snapshots
		(batch_id, timestamp, date, total_usd, total_uzs, total_debtors, agent_count)
		VALUES (?,?,?,?,?,?,?)`,
		snap.BatchID, snap.RecordedAt.Unix(), snap.Date,
		snap.TotalUSD.String(), snap.TotalUZS.String(),
		snap.TotalDebtors, snap.AgentCount,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, a := range snap.Agents {
		_, err := tx.ExecContext(ctx, `INSERT INTO agent_snapshots
			(batch_id, date, agent, total_usd, total_uzs, debtor_count)
			VALUES (?,?,?,?,?,?)`,
			snap.BatchID, snap.Date, a.Name,
			a.TotalUSD.String(), a.TotalUZS.String(), a.DebtorCount,
		)
		if err != nil {
			return fmt.Errorf("insert agent %s: %w", a.Name, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordFailedFile(ctx context.Context, evt *FailedFileEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO failed_files
		(batch_id, timestamp, file, reason)
		VALUES (?,?,?,?)`,
		evt.BatchID, evt.RecordedAt.Unix(), evt.File, evt.Reason,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	logger.Info("closing sqlite archive")
	return r.db.Close()
}
