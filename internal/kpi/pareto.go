package kpi

import (
	"cmp"
	"math"
	"slices"

	"profit-dashboard/internal/models"
)

const paretoEpsilon = 1e-9

// Concentrate ranks products by profit contribution and finds the smallest
// leading prefix reaching p.ParetoTarget. Ties keep the input order.
func Concentrate(products []models.ProductAggregate, p Policy) models.Concentration {
	c := models.Concentration{
		ProductCount: len(products),
		Records:      make([]models.ConcentrationRecord, 0, len(products)),
	}

	var totalProfit float64
	for _, prod := range products {
		totalProfit += prod.TotalProfit
	}
	if len(products) == 0 || totalProfit <= 0 {
		return c
	}
	c.Defined = true

	shares := make([]float64, len(products))
	ranked := make([]int, len(products))
	for i, prod := range products {
		shares[i] = prod.TotalProfit / totalProfit
		ranked[i] = i
	}
	slices.SortStableFunc(ranked, func(a, b int) int {
		return cmp.Compare(shares[b], shares[a])
	})

	var cumulative float64
	for i, idx := range ranked {
		prod, share := products[idx], shares[idx]
		cumulative += share
		rec := models.ConcentrationRecord{
			Rank:         i + 1,
			Product:      prod.Product,
			Profit:       prod.TotalProfit,
			Contribution: share,
			Cumulative:   cumulative,
		}
		if c.CriticalCount == 0 {
			rec.Critical = true
			if cumulative >= p.ParetoTarget-paretoEpsilon {
				c.CriticalCount = i + 1
			}
		}
		c.Records = append(c.Records, rec)
	}
	if c.CriticalCount == 0 {
		// Only reachable through rounding when the target is 1.
		c.CriticalCount = len(ranked)
	}

	n := float64(len(ranked))
	c.CriticalShare = float64(c.CriticalCount) / n
	c.Risky = c.CriticalShare < p.ConcentrationRiskFraction

	c.TopSegmentCount = max(1, int(math.Floor(n*p.TopSegmentFraction)))
	for _, rec := range c.Records[:c.TopSegmentCount] {
		c.TopSegmentShare += rec.Contribution
	}
	return c
}
