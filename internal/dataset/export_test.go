package dataset

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"profit-dashboard/internal/models"
)

func exportRows() []models.DerivedRow {
	return []models.DerivedRow{
		{
			Transaction: models.Transaction{
				Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Division: "Chocolate",
				Product: "Milk Chocolate Bar", Sales: 100, Cost: 60, Units: 10,
			},
			GrossProfit:         40,
			GrossMargin:         models.Float(0.4),
			ProfitPerUnit:       models.Float(4),
			RevenueContribution: models.Float(1),
			ProfitContribution:  models.Float(1),
			RiskLevel:           models.RiskLevelSafe,
		},
		{
			Transaction: models.Transaction{
				Date: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), Division: "Other",
				Product: "Gift Box, Large", Sales: 0, Cost: 0, Units: 0,
			},
			RiskLevel: models.RiskLevelUnknown,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, exportRows()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if got := strings.Join(records[0], ","); got != strings.Join(ExportColumns, ",") {
		t.Errorf("header = %s", got)
	}

	want := []string{"2024-01-05", "Chocolate", "Milk Chocolate Bar", "100", "60", "10", "40", "0.4", "4", "1", "1", "Safe"}
	if got := strings.Join(records[1], "|"); got != strings.Join(want, "|") {
		t.Errorf("row 1 = %s, want %s", got, strings.Join(want, "|"))
	}

	undefined := records[2]
	if undefined[2] != "Gift Box, Large" {
		t.Errorf("product with comma not round-tripped: %q", undefined[2])
	}
	for _, i := range []int{7, 8, 9, 10} {
		if undefined[i] != "" {
			t.Errorf("column %s should be empty for undefined metric, got %q", ExportColumns[i], undefined[i])
		}
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	want := strings.Join(ExportColumns, ",") + "\n"
	if buf.String() != want {
		t.Errorf("WriteCSV(nil) = %q, want %q", buf.String(), want)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, exportRows()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "date" || rows[0][len(ExportColumns)-1] != "risk_level" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][2] != "Milk Chocolate Bar" || rows[1][6] != "40" {
		t.Errorf("row 1 = %v", rows[1])
	}
}
