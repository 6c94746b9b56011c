package model

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as bare JSON numbers, matching the persisted data file.
	decimal.MarshalJSONWithoutQuotes = true
}

// Debtor is one client owing money to an agent.
type Debtor struct {
	Name string          `json:"name"`
	USD  decimal.Decimal `json:"usd"`
	UZS  decimal.Decimal `json:"uzs"`
}

// Agent is a collector built from one uploaded spreadsheet.
// TotalUSD, TotalUZS and DebtorCount always match Debtors.
type Agent struct {
	Name        string          `json:"name"`
	Debtors     []Debtor        `json:"debtors"`
	TotalUSD    decimal.Decimal `json:"totalUSD"`
	TotalUZS    decimal.Decimal `json:"totalUZS"`
	DebtorCount int             `json:"debtorCount"`
}

// Clone returns a deep copy of the agent.
func (a Agent) Clone() Agent {
	out := a
	out.Debtors = make([]Debtor, len(a.Debtors))
	copy(out.Debtors, a.Debtors)
	return out
}

// Summary drops the debtor list.
func (a Agent) Summary() AgentSummary {
	return AgentSummary{
		Name:        a.Name,
		TotalUSD:    a.TotalUSD,
		TotalUZS:    a.TotalUZS,
		DebtorCount: a.DebtorCount,
	}
}

// CloneAgents deep-copies a list. A nil list stays nil so an absent
// previous upload keeps serializing as null.
func CloneAgents(agents []Agent) []Agent {
	if agents == nil {
		return nil
	}
	out := make([]Agent, len(agents))
	for i, a := range agents {
		out[i] = a.Clone()
	}
	return out
}

// Totals is the global projection over a list of agents.
type Totals struct {
	TotalUSD     decimal.Decimal `json:"totalUSD"`
	TotalUZS     decimal.Decimal `json:"totalUZS"`
	TotalDebtors int             `json:"totalDebtors"`
}

// SumTotals aggregates the totals of every agent.
func SumTotals(agents []Agent) Totals {
	t := Totals{TotalUSD: decimal.Zero, TotalUZS: decimal.Zero}
	for _, a := range agents {
		t.TotalUSD = t.TotalUSD.Add(a.TotalUSD)
		t.TotalUZS = t.TotalUZS.Add(a.TotalUZS)
		t.TotalDebtors += a.DebtorCount
	}
	return t
}
