package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"profit-dashboard/internal/models"
)

const (
	batchSize  = 5000
	maxWorkers = 8
)

var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"01-02-06",
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339,
}

type loadOptions struct {
	sheet  string
	logger *slog.Logger
}

type Option func(*loadOptions)

// WithSheet selects the worksheet of an XLSX workbook. The first sheet is
// used otherwise.
func WithSheet(name string) Option {
	return func(o *loadOptions) { o.sheet = name }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *loadOptions) { o.logger = logger }
}

// Load reads a CSV or XLSX file into a Table, dispatching on extension.
func Load(ctx context.Context, path string, opts ...Option) (*Table, error) {
	o := loadOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	var (
		records [][]string
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		records, err = readCSVFile(path)
	case ".xlsx", ".xlsm":
		records, err = readXLSXFile(path, o.sheet)
	default:
		return nil, fmt.Errorf("unsupported data file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	t, err := fromRecords(ctx, path, records)
	if err != nil {
		return nil, err
	}

	o.logger.Info("dataset loaded",
		"source", path,
		"rows", t.Len(),
		"dropped", t.Dropped(),
		"duration", time.Since(start),
	)
	return t, nil
}

// ReadCSV loads a Table from CSV content. source names the data in errors.
func ReadCSV(ctx context.Context, source string, r io.Reader) (*Table, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", source, err)
	}
	return fromRecords(ctx, source, records)
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	records, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return records, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSXFile(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	// Raw values keep dates as serial numbers instead of locale formatted
	// text.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

type parsedRow struct {
	tx      models.Transaction
	dropped bool
	blank   bool
	err     error
}

func fromRecords(ctx context.Context, source string, records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, &SchemaError{Source: source, Missing: requiredColumns}
	}
	cols, err := mapColumns(source, records[0])
	if err != nil {
		return nil, err
	}

	body := records[1:]
	parsed := make([]parsedRow, len(body))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for lo := 0; lo < len(body); lo += batchSize {
		hi := min(lo+batchSize, len(body))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				parsed[i] = parseRecord(source, i+2, body[i], cols)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t := &Table{
		rows:     make([]models.Transaction, 0, len(body)),
		source:   source,
		loadedAt: time.Now(),
	}
	for _, p := range parsed {
		switch {
		case p.err != nil:
			return nil, p.err
		case p.blank:
		case p.dropped:
			t.dropped++
		default:
			t.rows = append(t.rows, p.tx)
		}
	}
	return t, nil
}

func parseRecord(source string, rowNum int, record []string, cols columnMap) parsedRow {
	cell := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	empty := 0
	for _, name := range requiredColumns {
		if cell(name) == "" {
			empty++
		}
	}
	switch {
	case empty == len(requiredColumns):
		return parsedRow{blank: true}
	case empty > 0:
		return parsedRow{dropped: true}
	}

	fail := func(column, reason string) parsedRow {
		return parsedRow{err: &SchemaError{
			Source: source,
			Row:    rowNum,
			Column: column,
			Value:  cell(column),
			Reason: reason,
		}}
	}

	d, err := parseDate(cell(colDate))
	if err != nil {
		return fail(colDate, "unrecognised date")
	}
	sales, err := parseAmount(cell(colSales))
	if err != nil {
		return fail(colSales, err.Error())
	}
	cost, err := parseAmount(cell(colCost))
	if err != nil {
		return fail(colCost, err.Error())
	}
	units, err := parseUnits(cell(colUnits))
	if err != nil {
		return fail(colUnits, err.Error())
	}

	return parsedRow{tx: models.Transaction{
		Date:     d,
		Division: cell(colDivision),
		Product:  cell(colProduct),
		Sales:    sales,
		Cost:     cost,
		Units:    units,
	}}
}

var (
	errNotNumber = errors.New("not a number")
	errNegative  = errors.New("must not be negative")
	errFraction  = errors.New("must be a whole number")
)

func parseAmount(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotNumber
	}
	if v < 0 {
		return 0, errNegative
	}
	return v, nil
}

func parseUnits(s string) (int, error) {
	v, err := parseAmount(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, errFraction
	}
	return int(v), nil
}

// parseDate accepts text layouts and spreadsheet serial numbers. The result
// is the calendar date at UTC midnight.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDate(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return calendarDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
