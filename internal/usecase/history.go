package usecase

import (
	"context"
	"fmt"

	"IndiLimit/internal/domain/models"
	domrepo "IndiLimit/internal/domain/repository"
	"IndiLimit/pkg/logger"
)

// maxHistoryRows bounds the series size of one response regardless of
// granularity; the day span is clamped so hourly requests cannot return an
// order of magnitude more rows than daily ones.
const maxHistoryRows = 5000

// HistoryUseCase serves joined price history for the API.
type HistoryUseCase struct {
	store    domrepo.HistoryStore
	provider domrepo.MarketData
	log      *logger.Logger
}

func NewHistoryUseCase(store domrepo.HistoryStore, provider domrepo.MarketData, log *logger.Logger) *HistoryUseCase {
	return &HistoryUseCase{store: store, provider: provider, log: log}
}

type GetHistoryParams struct {
	Days        int
	Granularity domrepo.Granularity
}

type GetHistoryResult struct {
	Days        int
	Granularity string
	Count       int
	Series      models.PriceSeries
}

func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	if p.Days <= 0 {
		return nil, fmt.Errorf("days must be positive")
	}
	if !domrepo.IsValidGranularity(p.Granularity) {
		p.Granularity = domrepo.DefaultGranularity()
	}
	if maxDays := int(float64(maxHistoryRows) / domrepo.PeriodsPerDay(p.Granularity)); p.Days > maxDays {
		p.Days = maxDays
	}

	series := uc.fromStore(ctx, p)
	if series == nil {
		var err error
		series, err = uc.provider.FetchHistory(ctx, p.Days, p.Granularity)
		if err != nil {
			return nil, fmt.Errorf("get history: %w", err)
		}
	}

	return &GetHistoryResult{
		Days:        p.Days,
		Granularity: string(p.Granularity),
		Count:       len(series),
		Series:      series,
	}, nil
}

func (uc *HistoryUseCase) fromStore(ctx context.Context, p GetHistoryParams) models.PriceSeries {
	if uc.store == nil {
		return nil
	}
	series, err := uc.store.History(ctx, p.Days, p.Granularity)
	if err != nil {
		uc.log.Warn("history store query failed", logger.Error(err))
		return nil
	}
	if len(series) == 0 {
		return nil
	}
	return series
}
