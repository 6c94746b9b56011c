package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uzhanitsoft/qarzdorlik/internal/aggregator"
	"github.com/uzhanitsoft/qarzdorlik/internal/compare"
	"github.com/uzhanitsoft/qarzdorlik/internal/extractor"
	"github.com/uzhanitsoft/qarzdorlik/internal/ledger"
	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
	"github.com/uzhanitsoft/qarzdorlik/internal/model"
)

var (
	ErrEmptyBatch   = errors.New("no files uploaded")
	ErrDateNotFound = errors.New("no snapshot for this date")
)

// IngestResult describes one committed upload.
type IngestResult struct {
	BatchID      string
	Agents       []model.Agent
	Failed       []aggregator.FileError
	Entry        model.HistoryEntry
	LastUpdated  time.Time
	HistoryCount int
}

// IngestHook observes committed uploads. Hooks run after the store locks are
// released and receive their own copy of the result.
type IngestHook func(ctx context.Context, res IngestResult)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithWorkers bounds how many files of a batch are parsed at once.
func WithWorkers(n int) Option {
	return func(s *Store) { s.workers = n }
}

// WithHook registers an ingest observer.
func WithHook(h IngestHook) Option {
	return func(s *Store) { s.hooks = append(s.hooks, h) }
}

// Store owns the live agent list, the previous upload and the history
// ledger. Uploads are serialized by ingestMu; readers take mu.RLock and
// always see either the state before or after a whole upload.
type Store struct {
	ingestMu sync.Mutex
	mu       sync.RWMutex

	filePath string
	parser   aggregator.Parser
	workers  int
	now      func() time.Time
	hooks    []IngestHook

	agents      []model.Agent
	previous    []model.Agent
	lastUpdated *time.Time
	ledger      *ledger.Ledger
}

// NewStore loads the dashboard document from filePath, falling back to an
// empty state when it is missing or unreadable.
func NewStore(filePath string, parser aggregator.Parser, opts ...Option) *Store {
	s := &Store{
		filePath: filePath,
		parser:   parser,
		workers:  4,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	state := LoadState(filePath)
	s.agents = state.Agents
	s.previous = state.PreviousData
	s.lastUpdated = state.LastUpdated
	s.ledger = ledger.New(state.History)

	logger.Info("dashboard state loaded from %s: %d agents, %d history entries", filePath, len(s.agents), s.ledger.Len())
	return s
}

// Ingest replaces the agent list with the agents parsed from files, records
// today's snapshot and persists the whole document. The previous agent list
// is only replaced when the current one is non-empty. If persisting fails
// the in-memory state is left untouched. Hooks run once the upload is
// committed and the writer lock is released.
func (s *Store) Ingest(ctx context.Context, files []extractor.File) (*IngestResult, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	res, err := s.commit(ctx, files)
	if err != nil {
		return nil, err
	}

	for _, h := range s.hooks {
		h(ctx, res.clone())
	}
	return res, nil
}

func (s *Store) commit(ctx context.Context, files []extractor.File) (*IngestResult, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	batchID := uuid.NewString()
	logger.Info("ingest %s: processing %d files", batchID, len(files))

	batch, err := aggregator.BuildBatch(ctx, files, s.parser, s.workers)
	if err != nil {
		return nil, fmt.Errorf("build batch: %w", err)
	}

	// ingestMu is held, so nothing else writes these fields; readers only
	// need mu while the new state is swapped in.
	now := s.now()
	previous := s.previous
	if len(s.agents) > 0 {
		previous = model.CloneAgents(s.agents)
	}
	nextLedger := s.ledger.Clone()
	entry := nextLedger.UpsertToday(batch.Agents, now)

	doc := &model.State{
		Agents:       batch.Agents,
		LastUpdated:  &now,
		PreviousData: previous,
		History:      nextLedger.Entries(0),
	}
	if err := SaveState(s.filePath, doc); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}

	s.mu.Lock()
	s.agents = batch.Agents
	s.previous = previous
	s.lastUpdated = &now
	s.ledger = nextLedger
	s.mu.Unlock()

	res := &IngestResult{
		BatchID:      batchID,
		Agents:       model.CloneAgents(batch.Agents),
		Failed:       batch.Failed,
		Entry:        entry,
		LastUpdated:  now,
		HistoryCount: nextLedger.Len(),
	}
	logger.Info("ingest %s: %d agents loaded, %d files skipped, %d history entries", batchID, len(res.Agents), len(res.Failed), res.HistoryCount)
	return res, nil
}

func (r IngestResult) clone() IngestResult {
	out := r
	out.Agents = model.CloneAgents(r.Agents)
	out.Failed = append([]aggregator.FileError(nil), r.Failed...)
	out.Entry = r.Entry.Clone()
	return out
}

// Save rewrites the whole document from the in-memory state.
func (s *Store) Save() error {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	s.mu.RLock()
	doc := s.snapshot()
	s.mu.RUnlock()

	return SaveState(s.filePath, doc)
}

// State returns a deep copy of the persisted document shape.
func (s *Store) State() *model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// caller holds mu
func (s *Store) snapshot() *model.State {
	return &model.State{
		Agents:       model.CloneAgents(s.agents),
		LastUpdated:  copyTime(s.lastUpdated),
		PreviousData: model.CloneAgents(s.previous),
		History:      s.ledger.Entries(0),
	}
}

// Data is the main dashboard view; changes compare the live totals with the
// last snapshot that is not today's.
func (s *Store) Data() DataView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := model.SumTotals(s.agents)
	var changes *model.Comparison
	if prev, ok := s.ledger.MostRecentExcludingToday(s.now()); ok {
		changes = compare.Compare(totals, &prev)
	}

	return DataView{
		Agents:       model.CloneAgents(s.agents),
		PreviousData: model.CloneAgents(s.previous),
		LastUpdated:  copyTime(s.lastUpdated),
		Totals:       totals,
		Changes:      changes,
		HistoryCount: s.ledger.Len(),
	}
}

// History returns the newest limit snapshots, or all when limit <= 0.
func (s *Store) History(limit int) HistoryView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.ledger.Entries(limit)
	return HistoryView{Count: len(entries), History: entries}
}

// CompareWith compares the live totals with the snapshot of date.
func (s *Store) CompareWith(date string) (*CompareView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.ledger.FindByDate(date)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDateNotFound, date)
	}
	totals := model.SumTotals(s.agents)
	return &CompareView{
		Current:  totals,
		Compared: entry,
		Changes:  compare.Compare(totals, &entry),
	}, nil
}

// Dates lists the recorded days with their totals, newest first.
func (s *Store) Dates() []model.DatePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Dates()
}

// Status is the short service summary.
func (s *Store) Status() StatusView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StatusView{
		Status:       "running",
		Agents:       len(s.agents),
		LastUpdated:  copyTime(s.lastUpdated),
		HistoryCount: s.ledger.Len(),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
