package extractor

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func num(v string) Cell { return NumberCell(decimal.RequireFromString(v)) }

func txt(v string) Cell { return TextCell(v) }

func TestExtract_InclusionRules(t *testing.T) {
	grid := [][]Cell{
		{txt("#"), txt("Klient"), txt("Tel"), txt("USD"), txt("UZS")},
		{num("1"), txt("Ali"), {}, num("100"), num("0")},
		{num("2"), txt("Vali"), {}, txt("n/a"), num("250000")},
		{num("3"), txt("Zero"), {}, num("0"), num("0")},
		{num("4"), txt("Negative"), {}, num("-5"), num("-1")},
		{num("5"), txt("Text only"), {}, txt("100"), txt("200")},
		nil,
		{num("6"), {}, {}, num("12.5")},
		{num("7"), txt("Mixed"), {}, num("-3"), num("10")},
	}

	got := DefaultColumns().Extract(grid)
	want := []struct {
		name     string
		usd, uzs string
	}{
		{"Ali", "100", "0"},
		{"Vali", "0", "250000"},
		{"Qarzdor 3", "12.5", "0"},
		{"Mixed", "-3", "10"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d debtors, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Name != w.name {
			t.Errorf("row %d: name %q, want %q", i, got[i].Name, w.name)
		}
		if !got[i].USD.Equal(decimal.RequireFromString(w.usd)) || !got[i].UZS.Equal(decimal.RequireFromString(w.uzs)) {
			t.Errorf("row %d: amounts %s/%s, want %s/%s", i, got[i].USD, got[i].UZS, w.usd, w.uzs)
		}
	}
	for _, d := range got {
		if d.USD.Sign() <= 0 && d.UZS.Sign() <= 0 {
			t.Errorf("included row %q has no positive amount", d.Name)
		}
	}
}

func TestExtract_NameFallback(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"numeric zero", num("0"), "Qarzdor 1"},
		{"numeric zero with scale", num("0.00"), "Qarzdor 1"},
		{"numeric id", num("42"), "42"},
		{"text zero", txt("0"), "0"},
		{"blank", Cell{}, "Qarzdor 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := [][]Cell{
				{txt("#"), txt("Klient"), txt("Tel"), txt("USD"), txt("UZS")},
				{num("1"), tt.cell, {}, num("10"), num("0")},
			}
			got := DefaultColumns().Extract(grid)
			if len(got) != 1 {
				t.Fatalf("expected 1 debtor, got %d", len(got))
			}
			if got[0].Name != tt.want {
				t.Errorf("name %q, want %q", got[0].Name, tt.want)
			}
		})
	}
}

func TestExtract_HeaderOnlyAndEmpty(t *testing.T) {
	cols := DefaultColumns()
	if got := cols.Extract(nil); len(got) != 0 || got == nil {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
	header := [][]Cell{{txt("a"), txt("b"), txt("c"), num("1"), num("2")}}
	if got := cols.Extract(header); len(got) != 0 {
		t.Errorf("header row must be skipped, got %+v", got)
	}
}

func TestExtract_CustomColumns(t *testing.T) {
	cols := Columns{Name: 0, USD: 1, UZS: 2}
	grid := [][]Cell{
		{txt("name"), txt("usd"), txt("uzs")},
		{txt("Karim"), num("7"), {}},
	}
	got := cols.Extract(grid)
	if len(got) != 1 || got[0].Name != "Karim" || !got[0].USD.Equal(decimal.NewFromInt(7)) {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestColumns_Validate(t *testing.T) {
	tests := []struct {
		cols    Columns
		wantErr bool
	}{
		{DefaultColumns(), false},
		{Columns{Name: 0, USD: 1, UZS: 1}, true},
		{Columns{Name: 3, USD: 3, UZS: 4}, true},
		{Columns{Name: -1, USD: 3, UZS: 4}, true},
	}
	for _, tt := range tests {
		err := tt.cols.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%+v: wantErr=%v got %v", tt.cols, tt.wantErr, err)
		}
		if _, err := New(tt.cols); (err != nil) != tt.wantErr {
			t.Errorf("New(%+v): wantErr=%v got %v", tt.cols, tt.wantErr, err)
		}
	}
}

func TestAgentName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Akmal aka 12.03.2026.xlsx", "Akmal aka"},
		{"Akmal aka 1.3.26.XLS", "Akmal aka"},
		{"Bobur.xlsx", "Bobur"},
		{"  Dilshod  .xls", "Dilshod"},
		{"Sardor_01.02.2026.xlsx", "Sardor_"},
		{"notes.txt", "notes.txt"},
		{"Agent 2026.xlsx", "Agent 2026"},
	}
	for _, tt := range tests {
		if got := AgentName(tt.in); got != tt.want {
			t.Errorf("AgentName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// workbook builds an xlsx file with a header row followed by rows.
func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := []interface{}{"#", "Klient", "Telefon", "USD", "UZS"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("header: %v", err)
	}
	for i, row := range rows {
		r := row
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, axis, &r); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParse_Workbook(t *testing.T) {
	data := workbook(t,
		[]interface{}{1, "Ali", nil, 150, 0},
		[]interface{}{2, "Vali", nil, "250", 1000000},
		[]interface{}{3, "Hech kim", nil, 0, 0},
		[]interface{}{4, nil, nil, 12.5, nil},
	)
	ex, err := New(DefaultColumns())
	if err != nil {
		t.Fatal(err)
	}
	debtors, err := ex.Parse(File{Name: "Ali 01.01.2026.xlsx", Data: data})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(debtors) != 3 {
		t.Fatalf("expected 3 debtors, got %d: %+v", len(debtors), debtors)
	}
	if !debtors[0].USD.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Ali usd: %s", debtors[0].USD)
	}
	// "250" is a string cell and must not count as USD.
	if !debtors[1].USD.IsZero() || !debtors[1].UZS.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("Vali amounts: %s/%s", debtors[1].USD, debtors[1].UZS)
	}
	if debtors[2].Name != "Qarzdor 3" || !debtors[2].USD.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("unnamed debtor: %+v", debtors[2])
	}
}

func TestParse_CorruptFile(t *testing.T) {
	ex, _ := New(DefaultColumns())
	if _, err := ex.Parse(File{Name: "broken.xlsx", Data: []byte("definitely not a zip")}); err == nil {
		t.Fatal("expected error for corrupt workbook")
	}
}
