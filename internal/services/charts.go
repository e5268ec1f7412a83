package services

import (
	"cmp"
	"slices"

	"profit-dashboard/internal/kpi"
	"profit-dashboard/internal/models"
)

const topContributors = 15

type ContributionPoint struct {
	Product      string  `json:"product"`
	Contribution float64 `json:"contribution"`
}

type ParetoPoint struct {
	Rank       int     `json:"rank"`
	Product    string  `json:"product"`
	Cumulative float64 `json:"cumulative"`
	Critical   bool    `json:"critical"`
}

type MarginPoint struct {
	Division string       `json:"division"`
	Spread   models.Spread `json:"spread"`
}

// Charts is the series data pushed to the browser charts.
type Charts struct {
	Contribution []ContributionPoint `json:"contribution"`
	Pareto       []ParetoPoint       `json:"pareto"`
	Margins      []MarginPoint       `json:"margins"`
}

func BuildCharts(s kpi.DashboardState) Charts {
	c := Charts{
		Contribution: make([]ContributionPoint, 0, topContributors),
		Pareto:       make([]ParetoPoint, 0, len(s.Concentration.Records)),
		Margins:      make([]MarginPoint, 0, len(s.Divisions)),
	}

	products := slices.Clone(s.Products)
	slices.SortStableFunc(products, func(a, b models.ProductAggregate) int {
		return cmp.Compare(b.ProfitContribution.Or(0), a.ProfitContribution.Or(0))
	})
	for _, p := range products[:min(topContributors, len(products))] {
		if v, ok := p.ProfitContribution.Get(); ok {
			c.Contribution = append(c.Contribution, ContributionPoint{Product: p.Product, Contribution: v})
		}
	}

	for _, r := range s.Concentration.Records {
		c.Pareto = append(c.Pareto, ParetoPoint{
			Rank:       r.Rank,
			Product:    r.Product,
			Cumulative: r.Cumulative,
			Critical:   r.Critical,
		})
	}

	for _, d := range s.Divisions {
		if d.Spread.Valid {
			c.Margins = append(c.Margins, MarginPoint{Division: d.Division, Spread: d.Spread})
		}
	}
	return c
}
