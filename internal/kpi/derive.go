package kpi

import "profit-dashboard/internal/models"

// Derive computes the per-row metrics. Contributions are relative to the
// totals of rows itself, so rows must already be filtered.
func Derive(rows []models.Transaction, marginThreshold float64) []models.DerivedRow {
	var totalSales, totalProfit float64
	for _, row := range rows {
		totalSales += row.Sales
		totalProfit += row.Sales - row.Cost
	}

	out := make([]models.DerivedRow, len(rows))
	for i, row := range rows {
		profit := row.Sales - row.Cost
		margin := models.Ratio(profit, row.Sales)

		d := models.DerivedRow{
			Transaction:         row,
			GrossProfit:         profit,
			GrossMargin:         margin,
			ProfitPerUnit:       models.Ratio(profit, float64(row.Units)),
			RevenueContribution: models.Ratio(row.Sales, totalSales),
			ProfitContribution:  models.Ratio(profit, totalProfit),
			RiskLevel:           models.RiskLevelUnknown,
		}
		if m, ok := margin.Get(); ok {
			d.CostRisk = m < marginThreshold
			d.RiskLevel = models.RiskLevelSafe
			if d.CostRisk {
				d.RiskLevel = models.RiskLevelHigh
			}
		}
		out[i] = d
	}
	return out
}

// AtRisk returns the rows flagged cost-risk, in order.
func AtRisk(rows []models.DerivedRow) []models.DerivedRow {
	out := make([]models.DerivedRow, 0)
	for _, row := range rows {
		if row.CostRisk {
			out = append(out, row)
		}
	}
	return out
}
