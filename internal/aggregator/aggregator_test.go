package aggregator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uzhanitsoft/qarzdorlik/internal/extractor"
	"github.com/uzhanitsoft/qarzdorlik/internal/model"
)

func debtor(name string, usd, uzs int64) model.Debtor {
	return model.Debtor{Name: name, USD: decimal.NewFromInt(usd), UZS: decimal.NewFromInt(uzs)}
}

// stubParser serves canned rows keyed by filename; names containing "bad"
// fail and names containing "panic" panic. Delay lets later files finish
// first to prove ordering does not depend on completion order.
type stubParser struct {
	rows  map[string][]model.Debtor
	delay map[string]time.Duration
}

func (p stubParser) Parse(file extractor.File) ([]model.Debtor, error) {
	if d := p.delay[file.Name]; d > 0 {
		time.Sleep(d)
	}
	switch {
	case strings.Contains(file.Name, "panic"):
		panic("boom")
	case strings.Contains(file.Name, "bad"):
		return nil, errors.New("corrupt workbook")
	}
	return p.rows[file.Name], nil
}

func TestBuildAgent_Totals(t *testing.T) {
	a := BuildAgent("Akmal", []model.Debtor{debtor("x", 100, 0), debtor("y", 0, 5000), debtor("z", 25, 10)})
	if a.DebtorCount != 3 || len(a.Debtors) != 3 {
		t.Fatalf("debtor count: %d/%d", a.DebtorCount, len(a.Debtors))
	}
	if !a.TotalUSD.Equal(decimal.NewFromInt(125)) || !a.TotalUZS.Equal(decimal.NewFromInt(5010)) {
		t.Errorf("totals: %s/%s", a.TotalUSD, a.TotalUZS)
	}
	if a.Debtors[0].Name != "x" || a.Debtors[2].Name != "z" {
		t.Errorf("row order not preserved: %+v", a.Debtors)
	}
}

func TestBuildAgent_Empty(t *testing.T) {
	a := BuildAgent("Empty", nil)
	if a.DebtorCount != 0 || !a.TotalUSD.IsZero() || !a.TotalUZS.IsZero() {
		t.Errorf("unexpected totals: %+v", a)
	}
	if a.Debtors == nil {
		t.Error("debtors should be an empty list so it serializes as []")
	}
}

func TestBuildBatch_OrderAndFailures(t *testing.T) {
	p := stubParser{
		rows: map[string][]model.Debtor{
			"A 01.01.2026.xlsx": {debtor("a1", 10, 0), debtor("a2", 0, 20)},
			"B.xlsx":            {},
			"C.xlsx":            {debtor("c1", 1, 1)},
		},
		delay: map[string]time.Duration{"A 01.01.2026.xlsx": 30 * time.Millisecond},
	}
	files := []extractor.File{
		{Name: "A 01.01.2026.xlsx"},
		{Name: "bad.xlsx"},
		{Name: "B.xlsx"},
		{Name: "panic.xlsx"},
		{Name: "C.xlsx"},
	}

	batch, err := BuildBatch(context.Background(), files, p, 4)
	if err != nil {
		t.Fatalf("BuildBatch: %v", err)
	}
	names := make([]string, len(batch.Agents))
	for i, a := range batch.Agents {
		names[i] = a.Name
	}
	if strings.Join(names, ",") != "A,B,C" {
		t.Errorf("expected upload order A,B,C got %v", names)
	}
	if len(batch.Failed) != 2 || batch.Failed[0].File != "bad.xlsx" || batch.Failed[1].File != "panic.xlsx" {
		t.Errorf("unexpected failures: %+v", batch.Failed)
	}
	for _, a := range batch.Agents {
		var usd, uzs decimal.Decimal
		for _, d := range a.Debtors {
			usd = usd.Add(d.USD)
			uzs = uzs.Add(d.UZS)
		}
		if !usd.Equal(a.TotalUSD) || !uzs.Equal(a.TotalUZS) || a.DebtorCount != len(a.Debtors) {
			t.Errorf("agent %s totals do not match debtors", a.Name)
		}
	}
}

func TestBuildBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildBatch(ctx, []extractor.File{{Name: "A.xlsx"}}, stubParser{}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
