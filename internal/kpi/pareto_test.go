package kpi

import (
	"testing"

	"profit-dashboard/internal/models"
)

func productsWithProfit(profits ...float64) []models.ProductAggregate {
	names := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	out := make([]models.ProductAggregate, len(profits))
	for i, p := range profits {
		out[i] = models.ProductAggregate{Product: names[i], TotalProfit: p}
	}
	return out
}

func TestConcentrate_CriticalPrefix(t *testing.T) {
	tests := []struct {
		name         string
		profits      []float64
		wantOrder    string
		wantCritical int
		wantRisky    bool
	}{
		{"single dominant product", []float64{5, 900, 5, 5, 5, 5, 5, 5, 5, 5}, "BACDEFGHIJ", 1, true},
		{"even spread", []float64{10, 10, 10, 10, 10}, "ABCDE", 4, false},
		{"exact target", []float64{20, 80}, "BA", 1, false},
		{"single product", []float64{42}, "A", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Concentrate(productsWithProfit(tt.profits...), DefaultPolicy())
			if !c.Defined {
				t.Fatal("expected defined concentration")
			}

			var order string
			for _, r := range c.Records {
				order += r.Product
			}
			if order != tt.wantOrder {
				t.Errorf("order = %s, want %s", order, tt.wantOrder)
			}
			if c.CriticalCount != tt.wantCritical {
				t.Errorf("critical count = %d, want %d", c.CriticalCount, tt.wantCritical)
			}
			if c.Risky != tt.wantRisky {
				t.Errorf("risky = %v, want %v", c.Risky, tt.wantRisky)
			}

			critical := 0
			for _, r := range c.Records {
				if r.Critical {
					critical++
				}
			}
			if critical != c.CriticalCount {
				t.Errorf("%d records flagged critical, want %d", critical, c.CriticalCount)
			}
			if last := c.Records[len(c.Records)-1]; !approx(last.Cumulative, 1) {
				t.Errorf("cumulative ends at %v, want 1", last.Cumulative)
			}
		})
	}
}

func TestConcentrate_TiesAreStable(t *testing.T) {
	c := Concentrate(productsWithProfit(10, 30, 10, 30, 10), DefaultPolicy())

	var order string
	for _, r := range c.Records {
		order += r.Product
	}
	if order != "BDACE" {
		t.Errorf("order = %s, want BDACE", order)
	}
	for i, r := range c.Records {
		if r.Rank != i+1 {
			t.Errorf("record %d has rank %d", i, r.Rank)
		}
	}
}

func TestConcentrate_RanksByContribution(t *testing.T) {
	c := Concentrate(productsWithProfit(20, -10, 50, 40), DefaultPolicy())

	want := []struct {
		product string
		share   float64
	}{{"C", 0.5}, {"D", 0.4}, {"A", 0.2}, {"B", -0.1}}
	if len(c.Records) != len(want) {
		t.Fatalf("got %d records, want %d", len(c.Records), len(want))
	}
	for i, w := range want {
		r := c.Records[i]
		if r.Product != w.product || !approx(r.Contribution, w.share) {
			t.Errorf("record %d = %s/%v, want %s/%v", i, r.Product, r.Contribution, w.product, w.share)
		}
	}
	if c.CriticalCount != 2 {
		t.Errorf("critical count = %d, want 2", c.CriticalCount)
	}
}

func TestConcentrate_TopSegment(t *testing.T) {
	c := Concentrate(productsWithProfit(50, 20, 10, 10, 5, 5, 0, 0, 0, 0), DefaultPolicy())
	if c.TopSegmentCount != 2 {
		t.Errorf("top segment count = %d, want 2", c.TopSegmentCount)
	}
	if !approx(c.TopSegmentShare, 0.7) {
		t.Errorf("top segment share = %v, want 0.7", c.TopSegmentShare)
	}

	small := Concentrate(productsWithProfit(3, 1), DefaultPolicy())
	if small.TopSegmentCount != 1 {
		t.Errorf("top segment has at least one product, got %d", small.TopSegmentCount)
	}
}

func TestConcentrate_Undefined(t *testing.T) {
	if c := Concentrate(nil, DefaultPolicy()); c.Defined || len(c.Records) != 0 {
		t.Errorf("empty input should be undefined, got %+v", c)
	}
	if c := Concentrate(productsWithProfit(-10, 5), DefaultPolicy()); c.Defined {
		t.Errorf("non-positive total profit should be undefined, got %+v", c)
	}
}

func TestConcentrate_CustomTarget(t *testing.T) {
	p := DefaultPolicy()
	p.ParetoTarget = 0.5
	c := Concentrate(productsWithProfit(10, 10, 10, 10), p)
	if c.CriticalCount != 2 {
		t.Errorf("critical count = %d, want 2", c.CriticalCount)
	}
	if !approx(c.CriticalShare, 0.5) {
		t.Errorf("critical share = %v, want 0.5", c.CriticalShare)
	}
}
