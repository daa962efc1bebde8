package risk

import (
	"IndiLimit/internal/domain/models"
)

// Blend reconciles the rule-based limit with the forecaster's allocation
// fraction. The more conservative of the two wins; a first purchase then
// gets the profile's one-time bonus multiplier, which may push the result
// past either individual signal.
func Blend(smartLimit, allocationFraction, balance float64, firstPurchase bool, cfg models.ProfileConfig) float64 {
	forecastAmount := balance * allocationFraction

	final := smartLimit
	if forecastAmount < final {
		final = forecastAmount
	}
	if firstPurchase {
		final *= cfg.FirstTimeBonus
	}
	if final < 0 {
		final = 0
	}
	return final
}

// FlatFallback is the last-resort recommendation when market data or the
// forecaster is unusable.
func FlatFallback(balance float64, cfg models.ProfileConfig) float64 {
	limit := balance * cfg.FlatFallback
	if limit < 0 {
		limit = 0
	}
	return limit
}
