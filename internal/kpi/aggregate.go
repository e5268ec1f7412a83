package kpi

import (
	"slices"

	"profit-dashboard/internal/models"
)

func ComputeTotals(rows []models.DerivedRow) models.Totals {
	t := models.Totals{Rows: len(rows)}
	margins := make([]float64, 0, len(rows))
	for _, row := range rows {
		t.TotalSales += row.Sales
		t.TotalCost += row.Cost
		t.TotalProfit += row.GrossProfit
		t.TotalUnits += row.Units
		if m, ok := row.GrossMargin.Get(); ok {
			margins = append(margins, m)
		}
	}
	t.MeanMargin = mean(margins)
	return t
}

type productGroup struct {
	agg     models.ProductAggregate
	margins []float64
	monthly map[string][]float64
}

// AggregateProducts groups rows by product in order of first appearance.
func AggregateProducts(rows []models.DerivedRow, totals models.Totals, marginThreshold float64, p Policy) []models.ProductAggregate {
	index := make(map[string]int)
	groups := make([]*productGroup, 0)

	for _, row := range rows {
		i, ok := index[row.Product]
		if !ok {
			i = len(groups)
			index[row.Product] = i
			groups = append(groups, &productGroup{
				agg:     models.ProductAggregate{Product: row.Product},
				monthly: make(map[string][]float64),
			})
		}
		g := groups[i]
		g.agg.Transactions++
		g.agg.TotalSales += row.Sales
		g.agg.TotalCost += row.Cost
		g.agg.TotalProfit += row.GrossProfit
		g.agg.TotalUnits += row.Units
		if row.CostRisk {
			g.agg.RiskyTransactions++
		}
		if m, ok := row.GrossMargin.Get(); ok {
			g.margins = append(g.margins, m)
			month := row.Date.Format("2006-01")
			g.monthly[month] = append(g.monthly[month], m)
		}
	}

	out := make([]models.ProductAggregate, len(groups))
	for i, g := range groups {
		agg := g.agg
		agg.ProfitPerUnit = models.Ratio(agg.TotalProfit, float64(agg.TotalUnits))
		agg.MeanMargin = mean(g.margins)
		agg.RevenueContribution = models.Ratio(agg.TotalSales, totals.TotalSales)
		agg.ProfitContribution = models.Ratio(agg.TotalProfit, totals.TotalProfit)

		sd, ok := sampleStdDev(g.buckets(p.VolatilityBucket))
		agg.Volatility = sd
		agg.VolatilityInsufficient = !ok
		agg.VolatilityRisk = ClassifyVolatility(sd, ok, p)

		if m, ok := agg.MeanMargin.Get(); ok {
			agg.CostRisk = m < marginThreshold
		}
		out[i] = agg
	}
	return out
}

// buckets returns the margin observations volatility is computed over.
func (g *productGroup) buckets(b Bucket) []float64 {
	if b != BucketMonth {
		return g.margins
	}
	months := make([]string, 0, len(g.monthly))
	for month := range g.monthly {
		months = append(months, month)
	}
	slices.Sort(months)
	out := make([]float64, 0, len(months))
	for _, month := range months {
		out = append(out, mean(g.monthly[month]).Float64)
	}
	return out
}

// AggregateDivisions groups rows by division in order of first appearance.
func AggregateDivisions(rows []models.DerivedRow) []models.DivisionAggregate {
	index := make(map[string]int)
	out := make([]models.DivisionAggregate, 0)

	for _, row := range rows {
		i, ok := index[row.Division]
		if !ok {
			i = len(out)
			index[row.Division] = i
			out = append(out, models.DivisionAggregate{
				Division: row.Division,
				Margins:  make([]float64, 0),
			})
		}
		d := &out[i]
		d.Transactions++
		d.TotalSales += row.Sales
		d.TotalProfit += row.GrossProfit
		if m, ok := row.GrossMargin.Get(); ok {
			d.Margins = append(d.Margins, m)
		}
	}

	for i := range out {
		out[i].MeanMargin = mean(out[i].Margins)
		out[i].Spread = spread(out[i].Margins)
	}
	return out
}
