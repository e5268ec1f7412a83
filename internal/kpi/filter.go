package kpi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"profit-dashboard/internal/models"
)

var ErrInvalidFilter = errors.New("invalid filter")

// AllDivisions selects every division when present in Filter.Divisions.
const AllDivisions = "all"

// Filter is the per-request row selection. The zero value selects every
// row with a margin threshold of zero.
type Filter struct {
	// Start and End bound the date range inclusively at day granularity.
	// A zero bound is open.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Divisions restricts rows to the listed labels. Empty, or containing
	// AllDivisions, selects every division.
	Divisions []string `json:"divisions"`

	MarginThreshold float64 `json:"margin_threshold"`

	// EnforceMargin drops rows whose margin is undefined or below
	// MarginThreshold. Only risk views set it.
	EnforceMargin bool `json:"enforce_margin"`

	// ProductQuery is a case-insensitive substring match on product name.
	ProductQuery string `json:"product_query"`
}

func (f Filter) Validate() error {
	if !f.Start.IsZero() && !f.End.IsZero() && day(f.Start).After(day(f.End)) {
		return fmt.Errorf("%w: start %s after end %s", ErrInvalidFilter,
			f.Start.Format(time.DateOnly), f.End.Format(time.DateOnly))
	}
	if !inUnit(f.MarginThreshold) {
		return fmt.Errorf("%w: margin threshold %v outside [0,1]", ErrInvalidFilter, f.MarginThreshold)
	}
	return nil
}

// Apply returns the rows matching every predicate of f, in input order.
// The input slice is never modified.
func Apply(rows []models.Transaction, f Filter) []models.Transaction {
	m := newMatcher(f)
	out := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		if m.match(row) {
			out = append(out, row)
		}
	}
	return out
}

type matcher struct {
	f         Filter
	start     time.Time
	end       time.Time
	divisions map[string]struct{}
	query     string
}

func newMatcher(f Filter) matcher {
	m := matcher{f: f, query: strings.ToLower(strings.TrimSpace(f.ProductQuery))}
	if !f.Start.IsZero() {
		m.start = day(f.Start)
	}
	if !f.End.IsZero() {
		m.end = day(f.End)
	}
	for _, d := range f.Divisions {
		if strings.EqualFold(strings.TrimSpace(d), AllDivisions) {
			m.divisions = nil
			break
		}
		if m.divisions == nil {
			m.divisions = make(map[string]struct{}, len(f.Divisions))
		}
		m.divisions[d] = struct{}{}
	}
	return m
}

func (m matcher) match(row models.Transaction) bool {
	d := day(row.Date)
	if !m.start.IsZero() && d.Before(m.start) {
		return false
	}
	if !m.end.IsZero() && d.After(m.end) {
		return false
	}
	if m.divisions != nil {
		if _, ok := m.divisions[row.Division]; !ok {
			return false
		}
	}
	if m.query != "" && !strings.Contains(strings.ToLower(row.Product), m.query) {
		return false
	}
	if m.f.EnforceMargin {
		margin, ok := models.Ratio(row.Sales-row.Cost, row.Sales).Get()
		if !ok || margin < m.f.MarginThreshold {
			return false
		}
	}
	return true
}

func day(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
