package models

type VolatilityRisk string

const (
	VolatilityLow     VolatilityRisk = "low"
	VolatilityMedium  VolatilityRisk = "medium"
	VolatilityHigh    VolatilityRisk = "high"
	VolatilityUnknown VolatilityRisk = "unknown"
)

type Totals struct {
	Rows        int       `json:"rows"`
	TotalSales  float64   `json:"total_sales"`
	TotalCost   float64   `json:"total_cost"`
	TotalProfit float64   `json:"total_profit"`
	TotalUnits  int       `json:"total_units"`
	MeanMargin  NullFloat `json:"mean_margin"`
}

type ProductAggregate struct {
	Product      string  `json:"product"`
	Transactions int     `json:"transactions"`
	TotalSales   float64 `json:"total_sales"`
	TotalCost    float64 `json:"total_cost"`
	TotalProfit  float64 `json:"total_profit"`
	TotalUnits   int     `json:"total_units"`

	ProfitPerUnit NullFloat `json:"profit_per_unit"`
	MeanMargin    NullFloat `json:"mean_margin"`

	// Volatility is the sample standard deviation of margin across time
	// buckets. It is zero with VolatilityInsufficient set when the product
	// has fewer than two buckets with a defined margin.
	Volatility             float64        `json:"volatility"`
	VolatilityInsufficient bool           `json:"volatility_insufficient"`
	VolatilityRisk         VolatilityRisk `json:"volatility_risk"`

	RevenueContribution NullFloat `json:"revenue_contribution"`
	ProfitContribution  NullFloat `json:"profit_contribution"`

	CostRisk          bool `json:"cost_risk"`
	RiskyTransactions int  `json:"risky_transactions"`
}

// Spread is a five-number summary of a distribution.
type Spread struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Valid  bool    `json:"valid"`
}

type DivisionAggregate struct {
	Division     string    `json:"division"`
	Transactions int       `json:"transactions"`
	TotalSales   float64   `json:"total_sales"`
	TotalProfit  float64   `json:"total_profit"`
	MeanMargin   NullFloat `json:"mean_margin"`
	Margins      []float64 `json:"margins"`
	Spread       Spread    `json:"spread"`
}

type ConcentrationRecord struct {
	Rank         int     `json:"rank"`
	Product      string  `json:"product"`
	Profit       float64 `json:"profit"`
	Contribution float64 `json:"contribution"`
	Cumulative   float64 `json:"cumulative"`
	Critical     bool    `json:"critical"`
}

// Concentration summarises how profit is spread over products. Records is
// ordered by descending contribution.
type Concentration struct {
	Defined         bool                  `json:"defined"`
	Records         []ConcentrationRecord `json:"records"`
	ProductCount    int                   `json:"product_count"`
	CriticalCount   int                   `json:"critical_count"`
	CriticalShare   float64               `json:"critical_share"`
	TopSegmentCount int                   `json:"top_segment_count"`
	TopSegmentShare float64               `json:"top_segment_share"`
	Risky           bool                  `json:"risky"`
}
