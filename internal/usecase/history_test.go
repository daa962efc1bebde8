package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndiLimit/internal/domain/models"
	drepo "IndiLimit/internal/domain/repository"
)

type recordingProvider struct {
	stubProvider
	days        int
	granularity drepo.Granularity
}

func (p *recordingProvider) FetchHistory(ctx context.Context, days int, g drepo.Granularity) (models.PriceSeries, error) {
	p.days = days
	p.granularity = g
	return p.stubProvider.FetchHistory(ctx, days, g)
}

func TestGetHistoryPrefersStore(t *testing.T) {
	store := &stubHistoryStore{series: risingSeries(30)}
	provider := &recordingProvider{stubProvider: stubProvider{historyErr: models.ErrUpstreamData}}
	uc := NewHistoryUseCase(store, provider, testLogger(t))

	res, err := uc.GetHistory(context.Background(), GetHistoryParams{Days: 30, Granularity: drepo.GranDaily})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Count)
	assert.Zero(t, provider.days, "provider is not consulted when the store has rows")
}

func TestGetHistoryFallsBackToProvider(t *testing.T) {
	store := &stubHistoryStore{err: models.ErrUpstreamData}
	provider := &recordingProvider{stubProvider: stubProvider{series: risingSeries(14)}}
	uc := NewHistoryUseCase(store, provider, testLogger(t))

	res, err := uc.GetHistory(context.Background(), GetHistoryParams{Days: 14, Granularity: drepo.GranDaily})
	require.NoError(t, err)
	assert.Equal(t, 14, res.Count)
	assert.Equal(t, 14, provider.days)
	assert.Equal(t, drepo.GranDaily, provider.granularity)
}

func TestGetHistoryClampsHourlySpan(t *testing.T) {
	provider := &recordingProvider{stubProvider: stubProvider{series: risingSeries(10)}}
	uc := NewHistoryUseCase(nil, provider, testLogger(t))

	res, err := uc.GetHistory(context.Background(), GetHistoryParams{Days: 1000, Granularity: drepo.GranHourly})
	require.NoError(t, err)
	// 5000 rows at 24 observations per day allows 208 whole days.
	assert.Equal(t, 208, res.Days)
	assert.Equal(t, 208, provider.days)

	// Daily resolution fits the same span within the row bound untouched.
	res, err = uc.GetHistory(context.Background(), GetHistoryParams{Days: 1000, Granularity: drepo.GranDaily})
	require.NoError(t, err)
	assert.Equal(t, 1000, res.Days)
}

func TestGetHistoryNormalizesGranularity(t *testing.T) {
	provider := &recordingProvider{stubProvider: stubProvider{series: risingSeries(5)}}
	uc := NewHistoryUseCase(nil, provider, testLogger(t))

	res, err := uc.GetHistory(context.Background(), GetHistoryParams{Days: 5, Granularity: "monthly"})
	require.NoError(t, err)
	assert.Equal(t, string(drepo.GranDaily), res.Granularity)
}

func TestGetHistoryRejectsNonPositiveDays(t *testing.T) {
	uc := NewHistoryUseCase(nil, &recordingProvider{}, testLogger(t))
	_, err := uc.GetHistory(context.Background(), GetHistoryParams{Days: 0, Granularity: drepo.GranDaily})
	assert.Error(t, err)
}
