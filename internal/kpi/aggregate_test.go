package kpi

import (
	"math"
	"testing"

	"profit-dashboard/internal/models"
)

func TestAggregateProducts_Volatility(t *testing.T) {
	rows := Derive(workedExample(), 0.3)
	totals := ComputeTotals(rows)
	got := AggregateProducts(rows, totals, 0.3, DefaultPolicy())

	p1 := got[0]
	want := math.Sqrt(2 * 0.15 * 0.15)
	if !approx(p1.Volatility, want) {
		t.Errorf("P1 volatility = %v, want %v", p1.Volatility, want)
	}
	if p1.VolatilityInsufficient || p1.VolatilityRisk != models.VolatilityHigh {
		t.Errorf("P1 volatility risk = %q (insufficient=%v), want high", p1.VolatilityRisk, p1.VolatilityInsufficient)
	}
	if !approx(p1.ProfitPerUnit.Float64, 2.5) {
		t.Errorf("P1 profit per unit = %v, want 2.5", p1.ProfitPerUnit.Float64)
	}

	p2 := got[1]
	if !p2.VolatilityInsufficient || p2.Volatility != 0 || p2.VolatilityRisk != models.VolatilityUnknown {
		t.Errorf("P2 has one observation, got %+v", p2)
	}
}

func TestAggregateProducts_MonthBuckets(t *testing.T) {
	rows := Derive([]models.Transaction{
		{Date: date(2024, 1, 1), Product: "X", Sales: 100, Cost: 60, Units: 1},
		{Date: date(2024, 1, 20), Product: "X", Sales: 100, Cost: 80, Units: 1},
		{Date: date(2024, 2, 3), Product: "X", Sales: 100, Cost: 70, Units: 1},
		{Date: date(2024, 3, 3), Product: "Y", Sales: 100, Cost: 50, Units: 1},
		{Date: date(2024, 3, 9), Product: "Y", Sales: 100, Cost: 10, Units: 1},
	}, 0.1)
	p := DefaultPolicy()
	p.VolatilityBucket = BucketMonth

	got := AggregateProducts(rows, ComputeTotals(rows), 0.1, p)

	// X: January averages 0.3, February is 0.3, so the monthly series is flat.
	if got[0].VolatilityInsufficient || !approx(got[0].Volatility, 0) {
		t.Errorf("X monthly volatility = %v (insufficient=%v), want 0", got[0].Volatility, got[0].VolatilityInsufficient)
	}
	if got[0].VolatilityRisk != models.VolatilityLow {
		t.Errorf("X risk = %q, want low", got[0].VolatilityRisk)
	}
	// Y has a single month.
	if !got[1].VolatilityInsufficient {
		t.Error("Y should have insufficient monthly observations")
	}

	p.VolatilityBucket = BucketTransaction
	perRow := AggregateProducts(rows, ComputeTotals(rows), 0.1, p)
	if perRow[1].VolatilityInsufficient || perRow[1].VolatilityRisk != models.VolatilityHigh {
		t.Errorf("Y per-transaction volatility should be high, got %+v", perRow[1])
	}
}

func TestAggregateDivisions(t *testing.T) {
	rows := Derive(sampleRows(), 0.1)
	got := AggregateDivisions(rows)

	if len(got) != 3 {
		t.Fatalf("expected 3 divisions, got %d", len(got))
	}
	order := []string{"Chocolate", "Sugar", "Other"}
	for i, d := range got {
		if d.Division != order[i] {
			t.Errorf("division %d = %q, want %q", i, d.Division, order[i])
		}
	}

	choc := got[0]
	if choc.Transactions != 4 || choc.TotalSales != 620 || choc.TotalProfit != 365 {
		t.Errorf("chocolate aggregate = %+v", choc)
	}
	if len(choc.Margins) != 4 || !choc.Spread.Valid {
		t.Errorf("chocolate distribution = %v / %+v", choc.Margins, choc.Spread)
	}
	if choc.Spread.Min > choc.Spread.Q1 || choc.Spread.Q1 > choc.Spread.Median ||
		choc.Spread.Median > choc.Spread.Q3 || choc.Spread.Q3 > choc.Spread.Max {
		t.Errorf("spread not ordered: %+v", choc.Spread)
	}

	other := got[2]
	if len(other.Margins) != 0 || other.Spread.Valid || other.MeanMargin.Valid {
		t.Errorf("zero-sales division should have no margin distribution, got %+v", other)
	}
}

func TestComputeTotals(t *testing.T) {
	got := ComputeTotals(Derive(workedExample(), 0))
	want := models.Totals{Rows: 3, TotalSales: 250, TotalCost: 160, TotalProfit: 90, TotalUnits: 25}
	if got.Rows != want.Rows || got.TotalSales != want.TotalSales || got.TotalCost != want.TotalCost ||
		got.TotalProfit != want.TotalProfit || got.TotalUnits != want.TotalUnits {
		t.Errorf("ComputeTotals() = %+v, want %+v", got, want)
	}
	if !approx(got.MeanMargin.Float64, (0.4+0.1+0.8)/3) {
		t.Errorf("mean margin = %v", got.MeanMargin.Float64)
	}
}

func TestSpread_Quartiles(t *testing.T) {
	s := spread([]float64{4, 1, 3, 2})
	if s.Min != 1 || s.Max != 4 || !approx(s.Median, 2.5) || !approx(s.Q1, 1.75) || !approx(s.Q3, 3.25) {
		t.Errorf("spread = %+v", s)
	}
	if one := spread([]float64{7}); one.Median != 7 || one.Q1 != 7 {
		t.Errorf("single value spread = %+v", one)
	}
}

func TestClassifyVolatility(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		v          float64
		sufficient bool
		want       models.VolatilityRisk
	}{
		{0.01, true, models.VolatilityLow},
		{0.05, true, models.VolatilityMedium},
		{0.149, true, models.VolatilityMedium},
		{0.15, true, models.VolatilityHigh},
		{0.9, false, models.VolatilityUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyVolatility(tt.v, tt.sufficient, p); got != tt.want {
			t.Errorf("ClassifyVolatility(%v, %v) = %q, want %q", tt.v, tt.sufficient, got, tt.want)
		}
	}
}
