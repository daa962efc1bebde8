package models

// Requests for the recommendation HTTP endpoints. Defined in domain for
// consistency and reuse.

type RecommendRequest struct {
	Balance     float64 `query:"balance" json:"balance" validate:"required,gt=0"`
	FirstTime   bool    `query:"first_time" json:"first_time"`
	BTCHoldings float64 `query:"btc_holdings" json:"btc_holdings" validate:"gte=0"`
	RiskProfile string  `query:"risk_profile" json:"risk_profile" default:"moderate" validate:"oneof=conservative moderate aggressive"`
}

type HistoryRequest struct {
	Days        int    `query:"days" json:"days" validate:"omitempty,gte=2,lte=2000"`
	Granularity string `query:"granularity" json:"granularity" default:"daily" validate:"oneof=hourly daily weekly"`
}
