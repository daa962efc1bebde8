package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeGranularity(t *testing.T) {
	assert.Equal(t, GranDaily, NormalizeGranularity(""))
	assert.Equal(t, GranDaily, NormalizeGranularity("fortnightly"))
	assert.Equal(t, GranHourly, NormalizeGranularity("hourly"))
	assert.Equal(t, GranWeekly, NormalizeGranularity("weekly"))
}

func TestPeriodsPerDay(t *testing.T) {
	assert.Equal(t, 24.0, PeriodsPerDay(GranHourly))
	assert.Equal(t, 1.0, PeriodsPerDay(GranDaily))
	assert.InDelta(t, 1.0/7.0, PeriodsPerDay(GranWeekly), 1e-12)
}
