package model

import "github.com/shopspring/decimal"

// Trend classifies the direction of debt between two snapshots.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Comparison holds the deltas between the current totals and a snapshot.
type Comparison struct {
	USDChange    decimal.Decimal `json:"usdChange"`
	UZSChange    decimal.Decimal `json:"uzsChange"`
	DebtorChange int             `json:"debtorChange"`
	Trend        Trend           `json:"trend"`
	PreviousDate string          `json:"previousDate"`
}
