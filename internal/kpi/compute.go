package kpi

import "profit-dashboard/internal/models"

// DashboardState is everything the presentation layer needs for one
// filtered view.
type DashboardState struct {
	Filter        Filter                     `json:"filter"`
	Policy        Policy                     `json:"-"`
	Totals        models.Totals              `json:"totals"`
	Rows          []models.DerivedRow        `json:"rows"`
	Products      []models.ProductAggregate  `json:"products"`
	Divisions     []models.DivisionAggregate `json:"divisions"`
	Concentration models.Concentration       `json:"concentration"`
	AtRisk        []models.DerivedRow        `json:"at_risk"`
	Findings      []models.Finding           `json:"findings"`
}

// Compute runs the whole pipeline over rows. It holds no state between
// calls and never modifies rows.
func Compute(rows []models.Transaction, f Filter, p Policy) (DashboardState, error) {
	if err := p.Validate(); err != nil {
		return DashboardState{}, err
	}
	if err := f.Validate(); err != nil {
		return DashboardState{}, err
	}

	derived := Derive(Apply(rows, f), f.MarginThreshold)
	totals := ComputeTotals(derived)
	products := AggregateProducts(derived, totals, f.MarginThreshold, p)

	s := DashboardState{
		Filter:        f,
		Policy:        p,
		Totals:        totals,
		Rows:          derived,
		Products:      products,
		Divisions:     AggregateDivisions(derived),
		Concentration: Concentrate(products, p),
		AtRisk:        AtRisk(derived),
	}
	s.Findings = Insights(s)
	return s, nil
}
