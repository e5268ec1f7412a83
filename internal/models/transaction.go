package models

import "time"

// Transaction is one observed sale event as loaded from the source sheet.
type Transaction struct {
	Date     time.Time `json:"date"`
	Division string    `json:"division"`
	Product  string    `json:"product"`
	Sales    float64   `json:"sales"`
	Cost     float64   `json:"cost"`
	Units    int       `json:"units"`
}

const (
	RiskLevelHigh    = "High Risk"
	RiskLevelSafe    = "Safe"
	RiskLevelUnknown = "Unknown"
)

// DerivedRow is a Transaction together with the metrics computed from it
// within a single filtered pass.
type DerivedRow struct {
	Transaction

	GrossProfit         float64   `json:"gross_profit"`
	GrossMargin         NullFloat `json:"gross_margin"`
	ProfitPerUnit       NullFloat `json:"profit_per_unit"`
	RevenueContribution NullFloat `json:"revenue_contribution"`
	ProfitContribution  NullFloat `json:"profit_contribution"`
	CostRisk            bool      `json:"cost_risk"`
	RiskLevel           string    `json:"risk_level"`
}
