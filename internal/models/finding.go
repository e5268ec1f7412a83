package models

type RuleID string

const (
	RuleBestDivision         RuleID = "best_division"
	RuleWeakestMarginProduct RuleID = "weakest_margin_product"
	RuleHighRiskProducts     RuleID = "high_risk_products"
	RuleTopSegmentShare      RuleID = "top_segment_share"
	RuleAverageVolatility    RuleID = "average_volatility"
	RuleProfitConcentration  RuleID = "profit_concentration_risk"
	RuleMarginInstability    RuleID = "margin_instability"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Finding is one structured insight. Params keys are stable per rule so
// renderers and tests can address them directly.
type Finding struct {
	Rule     RuleID         `json:"rule"`
	Severity Severity       `json:"severity"`
	Params   map[string]any `json:"params"`
}
