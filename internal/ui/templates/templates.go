package templates

//go:generate templ generate

import (
	"encoding/json"
	"fmt"

	"github.com/a-h/templ"

	"profit-dashboard/internal/kpi"
	"profit-dashboard/internal/models"
)

const (
	maxTableRows = 50
	defaultTitle = "Profit & Margin Dashboard"
)

// PageData seeds the filter sidebar.
type PageData struct {
	Title           string
	Divisions       []string
	MinDate         string
	MaxDate         string
	MarginThreshold float64
}

// Signals mirrors the datastar store the page keeps in the browser. The
// refresh endpoint reads it back on every change.
type Signals struct {
	Start           string   `json:"start"`
	End             string   `json:"end"`
	Divisions       []string `json:"divisions"`
	MarginThreshold float64  `json:"marginThreshold"`
	Product         string   `json:"product"`
}

// Fragments are the dashboard sections patched on every refresh, in page
// order.
func Fragments(s kpi.DashboardState, r kpi.Renderer) []templ.Component {
	return []templ.Component{
		KPICards(s.Totals),
		Insights(s.Findings, r),
		Products(s.Products),
		Divisions(s.Divisions),
		AtRisk(s.AtRisk),
	}
}

type insightView struct {
	Severity models.Severity
	Text     string
}

func insightViews(findings []models.Finding, r kpi.Renderer) []insightView {
	views := make([]insightView, 0, len(findings))
	for _, f := range findings {
		if text := r.Render(f); text != "" {
			views = append(views, insightView{Severity: f.Severity, Text: text})
		}
	}
	return views
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func pctf(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func pct(n models.NullFloat) string {
	if v, ok := n.Get(); ok {
		return pctf(v)
	}
	return "n/a"
}

func perUnit(n models.NullFloat) string {
	if v, ok := n.Get(); ok {
		return money(v)
	}
	return "n/a"
}

func volatility(p models.ProductAggregate) string {
	if p.VolatilityInsufficient {
		return "n/a"
	}
	return pctf(p.Volatility)
}

func median(s models.Spread) string {
	if !s.Valid {
		return "n/a"
	}
	return pctf(s.Median)
}

func atRiskNote(total int) string {
	if shown := min(maxTableRows, total); shown < total {
		return fmt.Sprintf("%d transactions below the margin threshold, showing the first %d.", total, shown)
	}
	return fmt.Sprintf("%d transactions below the margin threshold.", total)
}

func pageTitle(data PageData) string {
	if data.Title == "" {
		return defaultTitle
	}
	return data.Title
}

// pageSignals seeds the store. Charts starts null so the chart effect
// waits for the first refresh.
func pageSignals(data PageData) string {
	// Plain strings and numbers only, so encoding cannot fail.
	b, _ := json.Marshal(struct {
		Signals
		Charts any `json:"charts"`
	}{
		Signals: Signals{
			Divisions:       []string{},
			MarginThreshold: data.MarginThreshold,
		},
	})
	return string(b)
}

// exportHref is the datastar expression that rebuilds an export link from
// the current filter signals.
func exportHref(format string) string {
	return "'/api/export." + format + "?' + new URLSearchParams({start:$start,end:$end," +
		"division:$divisions.join(','),margin_threshold:$marginThreshold,product:$product})"
}
