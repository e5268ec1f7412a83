package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema matches every *SchemaError under errors.Is.
var ErrSchema = errors.New("schema error")

// SchemaError reports a sheet that cannot be loaded: required columns are
// missing, or a cell has the wrong type or an out-of-range value.
type SchemaError struct {
	Source  string
	Missing []string

	// Row is the 1-based row in the source, counting the header.
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error")
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing required columns %s", strings.Join(e.Missing, ", "))
		return b.String()
	}
	fmt.Fprintf(&b, ": row %d column %q value %q: %s", e.Row, e.Column, e.Value, e.Reason)
	return b.String()
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

const (
	colDate     = "date"
	colDivision = "division"
	colProduct  = "product"
	colSales    = "sales"
	colCost     = "cost"
	colUnits    = "units"
)

var requiredColumns = []string{colDate, colDivision, colProduct, colSales, colCost, colUnits}

var headerAliases = map[string]string{
	"date":              colDate,
	"order date":        colDate,
	"transaction date":  colDate,
	"division":          colDivision,
	"business division": colDivision,
	"segment":           colDivision,
	"product":           colProduct,
	"product name":      colProduct,
	"item":              colProduct,
	"sales":             colSales,
	"revenue":           colSales,
	"sales amount":      colSales,
	"cost":              colCost,
	"cogs":              colCost,
	"cost of goods":     colCost,
	"units":             colUnits,
	"units sold":        colUnits,
	"qty":               colUnits,
	"quantity":          colUnits,
}

// columnMap is the position of each required column in a record.
type columnMap map[string]int

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// mapColumns resolves header cells to required columns. The first matching
// header wins when a sheet carries duplicates.
func mapColumns(source string, header []string) (columnMap, error) {
	cols := make(columnMap, len(requiredColumns))
	for i, h := range header {
		name, ok := headerAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Source: source, Missing: missing}
	}
	return cols, nil
}
