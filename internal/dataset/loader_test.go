package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

const validCSV = `Date,Division,Product Name,Sales,Cost,Units
2024-01-15,Chocolate,Milk Chocolate Bar,120.50,55.25,12
2024-01-16,Sugar,Lollipop,30,28,15
2024-02-01,Chocolate,Dark Chocolate Bar,"1,200",700,100
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeTemp(t, "sales.csv", validCSV)

	table, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", table.Len())
	}

	rows := table.Rows()
	first := rows[0]
	if !first.Date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", first.Date)
	}
	if first.Division != "Chocolate" || first.Product != "Milk Chocolate Bar" {
		t.Errorf("labels = %q/%q", first.Division, first.Product)
	}
	if first.Sales != 120.50 || first.Cost != 55.25 || first.Units != 12 {
		t.Errorf("values = %v/%v/%v", first.Sales, first.Cost, first.Units)
	}
	if rows[2].Sales != 1200 {
		t.Errorf("thousands separator not handled: %v", rows[2].Sales)
	}
	if table.Source() != path {
		t.Errorf("source = %q", table.Source())
	}
}

func TestLoad_HeaderAliases(t *testing.T) {
	csv := "order_date, DIVISION ,item,Revenue,COGS,qty,extra\n01/15/2024,Chocolate,Truffle,10,4,2,x\n"
	table, err := ReadCSV(context.Background(), "aliases", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	row := table.Rows()[0]
	if row.Product != "Truffle" || row.Sales != 10 || row.Cost != 4 || row.Units != 2 {
		t.Errorf("row = %+v", row)
	}
	if row.Date.Month() != time.January || row.Date.Day() != 15 {
		t.Errorf("date = %v", row.Date)
	}
}

func TestLoad_SchemaErrors(t *testing.T) {
	tests := []struct {
		name       string
		csv        string
		wantColumn string
		wantRow    int
		wantText   string
	}{
		{
			name:     "empty file",
			csv:      "",
			wantText: "missing required columns date, division, product, sales, cost, units",
		},
		{
			name:     "missing units column",
			csv:      "date,division,product,sales,cost\n2024-01-01,A,P,1,1\n",
			wantText: "missing required columns units",
		},
		{
			name:       "invalid date",
			csv:        "date,division,product,sales,cost,units\n2024-01-01,A,P,1,1,1\nyesterday,A,P,1,1,1\n",
			wantColumn: "date",
			wantRow:    3,
		},
		{
			name:       "invalid sales",
			csv:        "date,division,product,sales,cost,units\n2024-01-01,A,P,lots,1,1\n",
			wantColumn: "sales",
			wantRow:    2,
		},
		{
			name:       "negative cost",
			csv:        "date,division,product,sales,cost,units\n2024-01-01,A,P,1,-1,1\n",
			wantColumn: "cost",
			wantRow:    2,
			wantText:   "must not be negative",
		},
		{
			name:       "fractional units",
			csv:        "date,division,product,sales,cost,units\n2024-01-01,A,P,1,1,1.5\n",
			wantColumn: "units",
			wantRow:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(context.Background(), "test.csv", strings.NewReader(tt.csv))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrSchema) {
				t.Errorf("error %v should match ErrSchema", err)
			}
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not a *SchemaError", err)
			}
			if tt.wantColumn != "" && se.Column != tt.wantColumn {
				t.Errorf("column = %q, want %q", se.Column, tt.wantColumn)
			}
			if tt.wantRow != 0 && se.Row != tt.wantRow {
				t.Errorf("row = %d, want %d", se.Row, tt.wantRow)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantText)
			}
		})
	}
}

func TestLoad_DropsIncompleteRows(t *testing.T) {
	csv := "date,division,product,sales,cost,units\n" +
		"2024-01-01,A,P,1,1,1\n" +
		"2024-01-02,,P,1,1,1\n" +
		",,,,,\n" +
		"2024-01-03,A,Q,2,1,1\n"

	table, err := ReadCSV(context.Background(), "test.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", table.Len())
	}
	if table.Dropped() != 1 {
		t.Errorf("expected 1 dropped row, got %d", table.Dropped())
	}
}

func TestLoad_ManyRowsKeepOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("date,division,product,sales,cost,units\n")
	const n = batchSize*3 + 17
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "2024-01-01,A,P,1,0,%d\n", i)
	}

	table, err := ReadCSV(context.Background(), "big.csv", strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != n {
		t.Fatalf("expected %d rows, got %d", n, table.Len())
	}
	for i, row := range table.Rows() {
		if row.Units != i {
			t.Fatalf("row %d has units %d; order not preserved", i, row.Units)
		}
	}
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSV(ctx, "test.csv", strings.NewReader(validCSV))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "sales.json", "{}")
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nassau.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Date", "Division", "Product Name", "Sales", "Cost", "Units"},
		{time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), "Chocolate", "Milk Chocolate Bar", 120.5, 50, 12},
		{"2024-03-05", "Sugar", "Lollipop", 30, 28, 15},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	table, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	got := table.Rows()
	if !got[0].Date.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("serial date parsed as %v", got[0].Date)
	}
	if !got[1].Date.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("text date parsed as %v", got[1].Date)
	}
	if got[0].Sales != 120.5 || got[0].Units != 12 {
		t.Errorf("row = %+v", got[0])
	}

	if _, err := Load(context.Background(), path, WithSheet("Missing")); err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-05", "01/05/2024", "1/5/24", "2024-01-05 13:45:00", "2024-01-05T08:00:00Z", "45296"} {
		got, err := parseDate(in)
		if err != nil {
			t.Errorf("parseDate(%q) error = %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseDate(%q) = %v, want %v", in, got, want)
		}
	}
}
