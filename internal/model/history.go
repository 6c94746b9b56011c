package model

import "github.com/shopspring/decimal"

// DateLayout is the calendar-day key of history entries.
const DateLayout = "2006-01-02"

// AgentSummary is the per-agent part of a daily snapshot.
type AgentSummary struct {
	Name        string          `json:"name"`
	TotalUSD    decimal.Decimal `json:"totalUSD"`
	TotalUZS    decimal.Decimal `json:"totalUZS"`
	DebtorCount int             `json:"debtorCount"`
}

// HistoryEntry is the frozen aggregate of one calendar day.
type HistoryEntry struct {
	Date         string          `json:"date"`
	TotalUSD     decimal.Decimal `json:"totalUSD"`
	TotalUZS     decimal.Decimal `json:"totalUZS"`
	TotalDebtors int             `json:"totalDebtors"`
	AgentCount   int             `json:"agentCount"`
	Agents       []AgentSummary  `json:"agents"`
}

// Totals projects the entry onto the comparable shape.
func (e HistoryEntry) Totals() Totals {
	return Totals{TotalUSD: e.TotalUSD, TotalUZS: e.TotalUZS, TotalDebtors: e.TotalDebtors}
}

// Clone returns a deep copy of the entry.
func (e HistoryEntry) Clone() HistoryEntry {
	out := e
	out.Agents = make([]AgentSummary, len(e.Agents))
	copy(out.Agents, e.Agents)
	return out
}

// DatePoint is one row of the available-dates listing.
type DatePoint struct {
	Date     string          `json:"date"`
	TotalUSD decimal.Decimal `json:"totalUSD"`
	TotalUZS decimal.Decimal `json:"totalUZS"`
}
