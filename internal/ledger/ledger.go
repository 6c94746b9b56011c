// Package ledger keeps the date-keyed history of daily dashboard snapshots.
//
// The ledger holds at most one entry per calendar day and is always sorted
// newest first. Writing an entry for a day that already exists replaces it.
package ledger

import (
	"sort"
	"time"

	"github.com/uzhanitsoft/qarzdorlik/internal/model"
)

// Ledger is not safe for concurrent use; the dashboard store guards it.
type Ledger struct {
	entries []model.HistoryEntry
}

// New builds a ledger from persisted entries. Duplicate dates keep their
// first occurrence and the result is re-sorted newest first.
func New(entries []model.HistoryEntry) *Ledger {
	seen := make(map[string]bool, len(entries))
	l := &Ledger{entries: make([]model.HistoryEntry, 0, len(entries))}
	for _, e := range entries {
		if seen[e.Date] {
			continue
		}
		seen[e.Date] = true
		l.entries = append(l.entries, e.Clone())
	}
	l.sort()
	return l
}

// DateOf returns the UTC calendar day of t.
func DateOf(t time.Time) string {
	return t.UTC().Format(model.DateLayout)
}

// Snapshot builds the history entry for agents on the given date.
func Snapshot(agents []model.Agent, date string) model.HistoryEntry {
	totals := model.SumTotals(agents)
	entry := model.HistoryEntry{
		Date:         date,
		TotalUSD:     totals.TotalUSD,
		TotalUZS:     totals.TotalUZS,
		TotalDebtors: totals.TotalDebtors,
		AgentCount:   len(agents),
		Agents:       make([]model.AgentSummary, len(agents)),
	}
	for i, a := range agents {
		entry.Agents[i] = a.Summary()
	}
	return entry
}

// UpsertToday records the snapshot of agents for the day of now, replacing
// any entry already written today.
func (l *Ledger) UpsertToday(agents []model.Agent, now time.Time) model.HistoryEntry {
	entry := Snapshot(agents, DateOf(now))
	l.Upsert(entry)
	return entry
}

// Upsert removes any entry with the same date, appends entry and re-sorts.
func (l *Ledger) Upsert(entry model.HistoryEntry) {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.Date != entry.Date {
			kept = append(kept, e)
		}
	}
	l.entries = append(kept, entry.Clone())
	l.sort()
}

// Entries returns the newest limit entries, or all of them when limit <= 0.
func (l *Ledger) Entries(limit int) []model.HistoryEntry {
	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.HistoryEntry, n)
	for i := 0; i < n; i++ {
		out[i] = l.entries[i].Clone()
	}
	return out
}

// FindByDate looks up the entry for a YYYY-MM-DD date.
func (l *Ledger) FindByDate(date string) (model.HistoryEntry, bool) {
	for _, e := range l.entries {
		if e.Date == date {
			return e.Clone(), true
		}
	}
	return model.HistoryEntry{}, false
}

// MostRecentExcludingToday returns the newest entry whose date is not the
// day of now. This is the last known snapshot, which may be several days old.
func (l *Ledger) MostRecentExcludingToday(now time.Time) (model.HistoryEntry, bool) {
	today := DateOf(now)
	for _, e := range l.entries {
		if e.Date != today {
			return e.Clone(), true
		}
	}
	return model.HistoryEntry{}, false
}

// Dates lists every recorded day with its currency totals, newest first.
func (l *Ledger) Dates() []model.DatePoint {
	out := make([]model.DatePoint, len(l.entries))
	for i, e := range l.entries {
		out[i] = model.DatePoint{Date: e.Date, TotalUSD: e.TotalUSD, TotalUZS: e.TotalUZS}
	}
	return out
}

// Len is the number of recorded days.
func (l *Ledger) Len() int { return len(l.entries) }

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{entries: l.Entries(0)}
}

// YYYY-MM-DD sorts lexicographically in calendar order.
func (l *Ledger) sort() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].Date > l.entries[j].Date
	})
}
