package models

// UserContext is the per-request user state feeding a recommendation.
// Never persisted by the engine.
type UserContext struct {
	SpendingBalance  float64 // INR-token units, > 0
	ExistingHoldings float64 // BTC units, >= 0
	FirstPurchase    bool
	Profile          RiskProfile
}

// Recommendation is the engine output for one recommend call.
type Recommendation struct {
	BTCUSD             float64
	USDINR             float64
	HardLimit          float64
	RecommendedPercent float64
	RiskProfile        string
	MarketSentiment    string
	BaselineMAE        float64
	ModelMAE           float64
	UsingFallbackRates bool
}

// Sentiment bucket boundaries for the 0-100 oscillator.
const (
	sentimentExtremeFearMax = 25
	sentimentFearMax        = 45
	sentimentNeutralMax     = 55
	sentimentGreedMax       = 75
)

// SentimentLabel classifies a sentiment value into its five-bucket text form.
func SentimentLabel(sentiment float64) string {
	switch {
	case sentiment < sentimentExtremeFearMax:
		return "Extreme Fear - Good buying opportunity"
	case sentiment < sentimentFearMax:
		return "Fear - Cautious buying opportunity"
	case sentiment < sentimentNeutralMax:
		return "Neutral - Normal market conditions"
	case sentiment < sentimentGreedMax:
		return "Greed - Exercise caution"
	default:
		return "Extreme Greed - High risk conditions"
	}
}
