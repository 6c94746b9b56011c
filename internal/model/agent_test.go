package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountsEncodeAsNumbers(t *testing.T) {
	a := Agent{
		Name:        "Akmal",
		Debtors:     []Debtor{{Name: "Ali", USD: decimal.RequireFromString("120.5"), UZS: decimal.Zero}},
		TotalUSD:    decimal.RequireFromString("120.5"),
		TotalUZS:    decimal.Zero,
		DebtorCount: 1,
	}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"usd":120.5`, `"totalUSD":120.5`, `"totalUZS":0`, `"debtorCount":1`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("encoded agent missing %s: %s", want, data)
		}
	}

	var back Agent
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.TotalUSD.Equal(a.TotalUSD) {
		t.Errorf("TotalUSD = %s after decode", back.TotalUSD)
	}
}

func TestCloneAgents(t *testing.T) {
	if CloneAgents(nil) != nil {
		t.Error("nil list must stay nil")
	}

	orig := []Agent{{Name: "A", Debtors: []Debtor{{Name: "x"}}}}
	cp := CloneAgents(orig)
	cp[0].Debtors[0].Name = "changed"
	cp[0].Name = "B"
	if orig[0].Debtors[0].Name != "x" || orig[0].Name != "A" {
		t.Error("clone shares memory with the original")
	}
}

func TestSumTotals(t *testing.T) {
	agents := []Agent{
		{TotalUSD: decimal.NewFromInt(100), TotalUZS: decimal.NewFromInt(5000), DebtorCount: 2},
		{TotalUSD: decimal.RequireFromString("0.25"), TotalUZS: decimal.Zero, DebtorCount: 1},
		{TotalUSD: decimal.Zero, TotalUZS: decimal.Zero, DebtorCount: 0},
	}
	got := SumTotals(agents)
	if !got.TotalUSD.Equal(decimal.RequireFromString("100.25")) || !got.TotalUZS.Equal(decimal.NewFromInt(5000)) || got.TotalDebtors != 3 {
		t.Errorf("SumTotals = %+v", got)
	}

	empty := SumTotals(nil)
	if !empty.TotalUSD.IsZero() || empty.TotalDebtors != 0 {
		t.Errorf("SumTotals(nil) = %+v", empty)
	}
}
