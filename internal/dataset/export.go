package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"profit-dashboard/internal/models"
)

const exportSheet = "Filtered Data"

// ExportColumns is the header of every export: the source columns followed
// by the derived ones.
var ExportColumns = []string{
	colDate, colDivision, colProduct, colSales, colCost, colUnits,
	"gross_profit", "gross_margin", "profit_per_unit",
	"revenue_contribution", "profit_contribution", "risk_level",
}

// WriteCSV writes rows in order. Undefined metrics are empty cells and an
// empty slice produces just the header.
func WriteCSV(w io.Writer, rows []models.DerivedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(row models.DerivedRow) []string {
	return []string{
		row.Date.Format(time.DateOnly),
		row.Division,
		row.Product,
		formatFloat(row.Sales),
		formatFloat(row.Cost),
		strconv.Itoa(row.Units),
		formatFloat(row.GrossProfit),
		row.GrossMargin.String(),
		row.ProfitPerUnit.String(),
		row.RevenueContribution.String(),
		row.ProfitContribution.String(),
		row.RiskLevel,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteXLSX writes the same table as WriteCSV to a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []models.DerivedRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]any, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, xlsxRecord(row)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func xlsxRecord(row models.DerivedRow) []any {
	return []any{
		row.Date.Format(time.DateOnly),
		row.Division,
		row.Product,
		row.Sales,
		row.Cost,
		row.Units,
		row.GrossProfit,
		nullCell(row.GrossMargin),
		nullCell(row.ProfitPerUnit),
		nullCell(row.RevenueContribution),
		nullCell(row.ProfitContribution),
		row.RiskLevel,
	}
}

func nullCell(n models.NullFloat) any {
	if v, ok := n.Get(); ok {
		return v
	}
	return ""
}
