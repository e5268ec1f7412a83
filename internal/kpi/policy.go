package kpi

import (
	"errors"
	"fmt"
)

var ErrInvalidPolicy = errors.New("invalid policy")

// Bucket selects the time granularity that margin volatility is measured
// over.
type Bucket string

const (
	BucketTransaction Bucket = "transaction"
	BucketMonth       Bucket = "month"
)

// Policy holds the fixed classification constants. They are set once at
// startup; per-request knobs live in Filter.
type Policy struct {
	// MarginThreshold is the default cost-risk cut point used when a
	// request does not choose its own.
	MarginThreshold float64

	// Volatility at or above VolatilityMedium is "medium", at or above
	// VolatilityHigh is "high".
	VolatilityMedium float64
	VolatilityHigh   float64
	VolatilityBucket Bucket

	// ParetoTarget is the cumulative profit share the critical product
	// prefix must reach.
	ParetoTarget float64

	// Concentration is risky when the critical prefix is smaller than this
	// fraction of all products.
	ConcentrationRiskFraction float64

	// TopSegmentFraction sizes the "top N% of products" profit share metric.
	TopSegmentFraction float64
}

func DefaultPolicy() Policy {
	return Policy{
		MarginThreshold:           0.10,
		VolatilityMedium:          0.05,
		VolatilityHigh:            0.15,
		VolatilityBucket:          BucketTransaction,
		ParetoTarget:              0.80,
		ConcentrationRiskFraction: 0.20,
		TopSegmentFraction:        0.20,
	}
}

// DefaultFilter is an unrestricted filter carrying the policy's margin
// threshold.
func (p Policy) DefaultFilter() Filter {
	return Filter{MarginThreshold: p.MarginThreshold}
}

func (p Policy) Validate() error {
	if !inUnit(p.MarginThreshold) {
		return fmt.Errorf("%w: margin threshold %v outside [0,1]", ErrInvalidPolicy, p.MarginThreshold)
	}
	if p.VolatilityMedium < 0 || p.VolatilityHigh < p.VolatilityMedium {
		return fmt.Errorf("%w: volatility cut points must satisfy 0 <= medium (%v) <= high (%v)",
			ErrInvalidPolicy, p.VolatilityMedium, p.VolatilityHigh)
	}
	switch p.VolatilityBucket {
	case BucketTransaction, BucketMonth:
	default:
		return fmt.Errorf("%w: unknown volatility bucket %q", ErrInvalidPolicy, p.VolatilityBucket)
	}
	if p.ParetoTarget <= 0 || p.ParetoTarget > 1 {
		return fmt.Errorf("%w: pareto target %v outside (0,1]", ErrInvalidPolicy, p.ParetoTarget)
	}
	if !inUnit(p.ConcentrationRiskFraction) {
		return fmt.Errorf("%w: concentration risk fraction %v outside [0,1]", ErrInvalidPolicy, p.ConcentrationRiskFraction)
	}
	if p.TopSegmentFraction <= 0 || p.TopSegmentFraction > 1 {
		return fmt.Errorf("%w: top segment fraction %v outside (0,1]", ErrInvalidPolicy, p.TopSegmentFraction)
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
