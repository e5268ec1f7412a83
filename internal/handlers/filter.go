package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"profit-dashboard/internal/kpi"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// filterParams is the raw, untrusted form of a kpi.Filter as it arrives in
// a query string or datastar signals.
type filterParams struct {
	Start           string   `validate:"omitempty,datetime=2006-01-02"`
	End             string   `validate:"omitempty,datetime=2006-01-02"`
	Divisions       []string `validate:"max=100,dive,max=200"`
	MarginThreshold *float64 `validate:"omitempty,gte=0,lte=1"`
	Product         string   `validate:"max=200"`
	EnforceMargin   bool
}

// paramsFromQuery reads start, end, division (repeatable or comma
// separated), margin_threshold, product and enforce_margin.
func paramsFromQuery(q url.Values) (filterParams, error) {
	p := filterParams{
		Start:   strings.TrimSpace(q.Get("start")),
		End:     strings.TrimSpace(q.Get("end")),
		Product: q.Get("product"),
	}
	for _, v := range q["division"] {
		p.Divisions = append(p.Divisions, splitList(v)...)
	}

	if raw := strings.TrimSpace(q.Get("margin_threshold")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return p, fmt.Errorf("margin_threshold %q is not a number", raw)
		}
		p.MarginThreshold = &v
	}
	if raw := strings.TrimSpace(q.Get("enforce_margin")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return p, fmt.Errorf("enforce_margin %q is not a boolean", raw)
		}
		p.EnforceMargin = v
	}
	return p, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (p filterParams) filter(defaultThreshold float64) (kpi.Filter, error) {
	if err := validate.Struct(p); err != nil {
		return kpi.Filter{}, err
	}

	f := kpi.Filter{
		Divisions:       p.Divisions,
		MarginThreshold: defaultThreshold,
		EnforceMargin:   p.EnforceMargin,
		ProductQuery:    strings.TrimSpace(p.Product),
	}
	if p.MarginThreshold != nil {
		f.MarginThreshold = *p.MarginThreshold
	}
	// Layouts were checked by the validator.
	if p.Start != "" {
		f.Start, _ = time.Parse(time.DateOnly, p.Start)
	}
	if p.End != "" {
		f.End, _ = time.Parse(time.DateOnly, p.End)
	}
	return f, f.Validate()
}
