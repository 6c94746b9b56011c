// Package compare derives change and trend signals between the live totals
// and a recorded snapshot.
package compare

import "github.com/uzhanitsoft/qarzdorlik/internal/model"

// Compare returns the deltas of current against previous, or nil when there
// is no previous snapshot.
//
// The trend checks run in sequence: any currency rising marks the trend as
// up; it is down only when USD fell and UZS did not rise. Consumers rely on
// this exact classification, including its asymmetry.
func Compare(current model.Totals, previous *model.HistoryEntry) *model.Comparison {
	if previous == nil {
		return nil
	}

	usdChange := current.TotalUSD.Sub(previous.TotalUSD)
	uzsChange := current.TotalUZS.Sub(previous.TotalUZS)

	trend := model.TrendStable
	if usdChange.Sign() > 0 || uzsChange.Sign() > 0 {
		trend = model.TrendUp
	}
	if usdChange.Sign() < 0 && uzsChange.Sign() <= 0 {
		trend = model.TrendDown
	}

	return &model.Comparison{
		USDChange:    usdChange,
		UZSChange:    uzsChange,
		DebtorChange: current.TotalDebtors - previous.TotalDebtors,
		Trend:        trend,
		PreviousDate: previous.Date,
	}
}
