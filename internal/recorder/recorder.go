package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uzhanitsoft/qarzdorlik/internal/dashboard"
	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
	"github.com/uzhanitsoft/qarzdorlik/internal/model"
)

// Snapshot is one committed upload as archived.
type Snapshot struct {
	BatchID      string
	Date         string
	RecordedAt   time.Time
	TotalUSD     decimal.Decimal
	TotalUZS     decimal.Decimal
	TotalDebtors int
	AgentCount   int
	Agents       []model.AgentSummary
}

// FailedFileEvent records a file skipped from an upload.
type FailedFileEvent struct {
	BatchID    string
	File       string
	Reason     string
	RecordedAt time.Time
}

// Recorder archives every upload for later analysis. The dashboard document
// only keeps one snapshot per day; the archive keeps all of them.
type Recorder interface {
	RecordSnapshot(ctx context.Context, snap *Snapshot) error
	RecordFailedFile(ctx context.Context, evt *FailedFileEvent) error
	Close() error
}

// Open picks the archive backend. With neither path nor DSN set the noop
// recorder is returned.
func Open(sqlitePath, postgresDSN string) (Recorder, error) {
	switch {
	case sqlitePath != "" && postgresDSN != "":
		return nil, fmt.Errorf("choose either sqlite or postgres for the archive")
	case sqlitePath != "":
		return NewSQLiteRecorder(sqlitePath)
	case postgresDSN != "":
		return NewPostgresRecorder(context.Background(), postgresDSN)
	default:
		logger.Info("archive disabled: no database configured")
		return NewNoopRecorder(), nil
	}
}

// FromResult converts an ingest result into its archive form.
func FromResult(res dashboard.IngestResult) *Snapshot {
	return &Snapshot{
		BatchID:      res.BatchID,
		Date:         res.Entry.Date,
		RecordedAt:   res.LastUpdated,
		TotalUSD:     res.Entry.TotalUSD,
		TotalUZS:     res.Entry.TotalUZS,
		TotalDebtors: res.Entry.TotalDebtors,
		AgentCount:   res.Entry.AgentCount,
		Agents:       res.Entry.Agents,
	}
}

// archiveTimeout bounds the writes for one upload.
const archiveTimeout = 30 * time.Second

// IngestHook archives each committed upload. The snapshot is already
// committed, so the writes outlive a cancelled upload request. Archive errors
// are logged and never reach the uploader.
func IngestHook(rec Recorder) dashboard.IngestHook {
	return func(reqCtx context.Context, res dashboard.IngestResult) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), archiveTimeout)
		defer cancel()

		if err := rec.RecordSnapshot(ctx, FromResult(res)); err != nil {
			logger.Warn("archive snapshot %s: %v", res.BatchID, err)
		}
		for _, f := range res.Failed {
			evt := &FailedFileEvent{
				BatchID:    res.BatchID,
				File:       f.File,
				Reason:     f.Err.Error(),
				RecordedAt: res.LastUpdated,
			}
			if err := rec.RecordFailedFile(ctx, evt); err != nil {
				logger.Warn("archive failed file %s: %v", f.File, err)
			}
		}
	}
}
