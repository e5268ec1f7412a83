package kpi

import (
	"fmt"
	"strings"

	"profit-dashboard/internal/models"
)

// Renderer turns a structured finding into presentation text.
type Renderer interface {
	Render(f models.Finding) string
}

// RenderAll renders findings in order, skipping any the renderer leaves
// empty.
func RenderAll(r Renderer, findings []models.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		if text := r.Render(f); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// TextRenderer produces the plain English lines shown on the dashboard.
type TextRenderer struct{}

func (TextRenderer) Render(f models.Finding) string {
	p := f.Params
	switch f.Rule {
	case models.RuleBestDivision:
		return fmt.Sprintf("Highest profit division: %s (%s profit)", p["division"], money(p["profit"]))
	case models.RuleWeakestMarginProduct:
		return fmt.Sprintf("Lowest margin product: %s (%s mean margin)", p["product"], percent(p["margin"]))
	case models.RuleHighRiskProducts:
		return fmt.Sprintf("High risk products (< %s margin): %v", percent(p["threshold"]), p["count"])
	case models.RuleTopSegmentShare:
		return fmt.Sprintf("Top %s of products contribute %s of total profit", percent(p["fraction"]), percent(p["share"]))
	case models.RuleAverageVolatility:
		return fmt.Sprintf("Average margin volatility: %s", percent(p["volatility"]))
	case models.RuleProfitConcentration:
		return fmt.Sprintf("High profit concentration risk: %v of %v products (%s) generate %s of profit",
			p["critical_count"], p["product_count"], percent(p["critical_share"]), percent(p["target"]))
	case models.RuleMarginInstability:
		products, _ := p["products"].([]string)
		return fmt.Sprintf("Margin instability detected: %s", strings.Join(products, ", "))
	default:
		return ""
	}
}

func percent(v any) string {
	f, _ := v.(float64)
	return fmt.Sprintf("%.2f%%", f*100)
}

func money(v any) string {
	f, _ := v.(float64)
	return fmt.Sprintf("%.2f", f)
}
