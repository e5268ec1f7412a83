package dataset

import (
	"slices"
	"time"

	"profit-dashboard/internal/models"
)

// Table is an immutable, loaded set of transactions. It is safe for
// concurrent use.
type Table struct {
	rows     []models.Transaction
	source   string
	dropped  int
	loadedAt time.Time
}

// NewTable wraps rows, copying them so later changes by the caller are not
// observed.
func NewTable(source string, rows []models.Transaction) *Table {
	return &Table{
		rows:     slices.Clone(rows),
		source:   source,
		loadedAt: time.Now(),
	}
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns a copy of every row in source order.
func (t *Table) Rows() []models.Transaction {
	return slices.Clone(t.rows)
}

func (t *Table) Source() string {
	return t.source
}

// Dropped is the number of source rows skipped for missing required values.
func (t *Table) Dropped() int {
	return t.dropped
}

func (t *Table) LoadedAt() time.Time {
	return t.loadedAt
}

func (t *Table) Divisions() []string {
	return distinct(t.rows, func(r models.Transaction) string { return r.Division })
}

func (t *Table) Products() []string {
	return distinct(t.rows, func(r models.Transaction) string { return r.Product })
}

// DateBounds returns the earliest and latest row dates. ok is false for an
// empty table.
func (t *Table) DateBounds() (minDate, maxDate time.Time, ok bool) {
	if len(t.rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	minDate, maxDate = t.rows[0].Date, t.rows[0].Date
	for _, r := range t.rows[1:] {
		if r.Date.Before(minDate) {
			minDate = r.Date
		}
		if r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}
	return minDate, maxDate, true
}

func distinct(rows []models.Transaction, key func(models.Transaction) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
