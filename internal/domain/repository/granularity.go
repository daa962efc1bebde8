package repository

// Granularity represents the sampling resolution of a price series.
type Granularity string

const (
	GranHourly Granularity = "hourly"
	GranDaily  Granularity = "daily"
	GranWeekly Granularity = "weekly"
)

// IsValidGranularity returns true if g is a supported granularity.
func IsValidGranularity(g Granularity) bool {
	switch g {
	case GranHourly, GranDaily, GranWeekly:
		return true
	default:
		return false
	}
}

// DefaultGranularity returns the recommended resolution for training.
func DefaultGranularity() Granularity { return GranDaily }

// NormalizeGranularity converts a raw string to a valid granularity (or default).
func NormalizeGranularity(s string) Granularity {
	if s == "" {
		return DefaultGranularity()
	}
	g := Granularity(s)
	if IsValidGranularity(g) {
		return g
	}
	return DefaultGranularity()
}

// PeriodsPerDay returns the number of observations per day for a granularity.
func PeriodsPerDay(g Granularity) float64 {
	switch g {
	case GranHourly:
		return 24
	case GranWeekly:
		return 1.0 / 7.0
	default:
		return 1
	}
}
