package recorder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
)

// PostgresRecorder archives uploads to a shared Postgres database.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects, pings and migrates the archive schema.
func NewPostgresRecorder(ctx context.Context, connString string) (*PostgresRecorder, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	r := &PostgresRecorder{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("postgres archive connected: %s@%s/%s", config.ConnConfig.User, config.ConnConfig.Host, config.ConnConfig.Database)
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ingest_snapshots (
			id            BIGSERIAL PRIMARY KEY,
			batch_id      TEXT NOT NULL,
			recorded_at   TIMESTAMPTZ NOT NULL,
			date          DATE NOT NULL,
			total_usd     NUMERIC NOT NULL,
			total_uzs     NUMERIC NOT NULL,
			total_debtors INTEGER,
			agent_count   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ingest_date ON ingest_snapshots(date)`,

		`CREATE TABLE IF NOT EXISTS agent_snapshots (
			id           BIGSERIAL PRIMARY KEY,
			batch_id     TEXT NOT NULL,
			date         DATE NOT NULL,
			agent        TEXT NOT NULL,
			total_usd    NUMERIC NOT NULL,
			total_uzs    NUMERIC NOT NULL,
			debtor_count INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agent_date ON agent_snapshots(agent, date)`,

		`CREATE TABLE IF NOT EXISTS failed_files (
			id          BIGSERIAL PRIMARY KEY,
			batch_id    TEXT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			file        TEXT,
			reason      TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSnapshot writes the totals row and all agent rows in one transaction.
// Amounts travel as decimal text and are cast server-side.
func (r *PostgresRecorder) RecordSnapshot(ctx context.Context, snap *Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO ingest_snapshots
		(batch_id, recorded_at, date, total_usd, total_uzs, total_debtors, agent_count)
		VALUES ($1, $2, $3::text::date, $4::text::numeric, $5::text::numeric, $6, $7)`,
		snap.BatchID, snap.RecordedAt, snap.Date,
		snap.TotalUSD.String(), snap.TotalUZS.String(),
		snap.TotalDebtors, snap.AgentCount,
	)
	for _, a := range snap.Agents {
		batch.Queue(`INSERT INTO agent_snapshots
			(batch_id, date, agent, total_usd, total_uzs, debtor_count)
			VALUES ($1, $2::text::date, $3, $4::text::numeric, $5::text::numeric, $6)`,
			snap.BatchID, snap.Date, a.Name,
			a.TotalUSD.String(), a.TotalUZS.String(), a.DebtorCount,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *PostgresRecorder) RecordFailedFile(ctx context.Context, evt *FailedFileEvent) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO failed_files
		(batch_id, recorded_at, file, reason)
		VALUES ($1, $2, $3, $4)`,
		evt.BatchID, evt.RecordedAt, evt.File, evt.Reason,
	)
	return err
}

func (r *PostgresRecorder) Close() error {
	logger.Info("closing postgres archive")
	r.pool.Close()
	return nil
}
