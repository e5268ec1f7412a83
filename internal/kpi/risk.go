package kpi

import "profit-dashboard/internal/models"

// ClassifyVolatility labels a margin volatility against the policy cut
// points. Products without enough observations are unknown.
func ClassifyVolatility(volatility float64, sufficient bool, p Policy) models.VolatilityRisk {
	switch {
	case !sufficient:
		return models.VolatilityUnknown
	case volatility >= p.VolatilityHigh:
		return models.VolatilityHigh
	case volatility >= p.VolatilityMedium:
		return models.VolatilityMedium
	default:
		return models.VolatilityLow
	}
}

// CostRiskProducts lists products whose mean margin is below the threshold
// they were aggregated with.
func CostRiskProducts(products []models.ProductAggregate) []string {
	out := make([]string, 0)
	for _, p := range products {
		if p.CostRisk {
			out = append(out, p.Product)
		}
	}
	return out
}

// HighRiskProducts lists products with at least one transaction below the
// margin threshold, in aggregate order.
func HighRiskProducts(products []models.ProductAggregate) []string {
	out := make([]string, 0)
	for _, p := range products {
		if p.RiskyTransactions > 0 {
			out = append(out, p.Product)
		}
	}
	return out
}
