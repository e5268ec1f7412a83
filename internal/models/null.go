package models

import (
	"encoding/json"
	"math"
	"strconv"
)

// NullFloat is a float64 that may be undefined, e.g. a margin over zero
// sales. The zero value is undefined.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// Ratio returns num/den, undefined when den is zero.
func Ratio(num, den float64) NullFloat {
	if den == 0 {
		return NullFloat{}
	}
	return Float(num / den)
}

func (n NullFloat) Get() (float64, bool) {
	return n.Float64, n.Valid
}

// Or returns the value, or fallback when undefined.
func (n NullFloat) Or(fallback float64) float64 {
	if !n.Valid {
		return fallback
	}
	return n.Float64
}

// String formats with full precision; undefined values render empty so the
// CSV export leaves the cell blank.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}
