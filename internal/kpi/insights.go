package kpi

import "profit-dashboard/internal/models"

// Insights evaluates the rule set over a computed state. Each rule is
// independent and is skipped when its inputs are undefined, so an empty
// selection yields no findings.
func Insights(s DashboardState) []models.Finding {
	findings := make([]models.Finding, 0)
	if s.Totals.Rows == 0 {
		return findings
	}

	if d, ok := bestDivision(s.Divisions); ok {
		findings = append(findings, models.Finding{
			Rule:     models.RuleBestDivision,
			Severity: models.SeverityInfo,
			Params: map[string]any{
				"division": d.Division,
				"profit":   d.TotalProfit,
			},
		})
	}

	if p, ok := weakestMargin(s.Products); ok {
		findings = append(findings, models.Finding{
			Rule:     models.RuleWeakestMarginProduct,
			Severity: models.SeverityWarning,
			Params: map[string]any{
				"product": p.Product,
				"margin":  p.MeanMargin.Float64,
			},
		})
	}

	if len(s.Products) > 0 {
		risky := HighRiskProducts(s.Products)
		sev := models.SeverityInfo
		if len(risky) > 0 {
			sev = models.SeverityWarning
		}
		findings = append(findings, models.Finding{
			Rule:     models.RuleHighRiskProducts,
			Severity: sev,
			Params: map[string]any{
				"count":     len(risky),
				"threshold": s.Filter.MarginThreshold,
				"products":  risky,
			},
		})
	}

	c := s.Concentration
	if c.Defined {
		findings = append(findings, models.Finding{
			Rule:     models.RuleTopSegmentShare,
			Severity: models.SeverityInfo,
			Params: map[string]any{
				"fraction": s.Policy.TopSegmentFraction,
				"count":    c.TopSegmentCount,
				"share":    c.TopSegmentShare,
			},
		})
	}

	if v, ok := averageVolatility(s.Products); ok {
		findings = append(findings, models.Finding{
			Rule:     models.RuleAverageVolatility,
			Severity: models.SeverityInfo,
			Params:   map[string]any{"volatility": v},
		})
	}

	if c.Defined && c.Risky {
		findings = append(findings, models.Finding{
			Rule:     models.RuleProfitConcentration,
			Severity: models.SeverityWarning,
			Params: map[string]any{
				"critical_count": c.CriticalCount,
				"product_count":  c.ProductCount,
				"critical_share": c.CriticalShare,
				"target":         s.Policy.ParetoTarget,
			},
		})
	}

	if unstable := highVolatility(s.Products); len(unstable) > 0 {
		findings = append(findings, models.Finding{
			Rule:     models.RuleMarginInstability,
			Severity: models.SeverityWarning,
			Params: map[string]any{
				"count":    len(unstable),
				"products": unstable,
			},
		})
	}

	return findings
}

func bestDivision(divisions []models.DivisionAggregate) (models.DivisionAggregate, bool) {
	if len(divisions) == 0 {
		return models.DivisionAggregate{}, false
	}
	best := divisions[0]
	for _, d := range divisions[1:] {
		if d.TotalProfit > best.TotalProfit {
			best = d
		}
	}
	return best, true
}

func weakestMargin(products []models.ProductAggregate) (models.ProductAggregate, bool) {
	var (
		weakest models.ProductAggregate
		found   bool
	)
	for _, p := range products {
		m, ok := p.MeanMargin.Get()
		if !ok {
			continue
		}
		if !found || m < weakest.MeanMargin.Float64 {
			weakest, found = p, true
		}
	}
	return weakest, found
}

func averageVolatility(products []models.ProductAggregate) (float64, bool) {
	vols := make([]float64, 0, len(products))
	for _, p := range products {
		if !p.VolatilityInsufficient {
			vols = append(vols, p.Volatility)
		}
	}
	return mean(vols).Get()
}

func highVolatility(products []models.ProductAggregate) []string {
	out := make([]string, 0)
	for _, p := range products {
		if p.VolatilityRisk == models.VolatilityHigh {
			out = append(out, p.Product)
		}
	}
	return out
}
