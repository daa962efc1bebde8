package usecase

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"IndiLimit/internal/domain/models"
	drepo "IndiLimit/internal/domain/repository"
	dservice "IndiLimit/internal/domain/service"
	"IndiLimit/internal/services/features"
	"IndiLimit/internal/services/risk"
	pkgcache "IndiLimit/pkg/cache"
	"IndiLimit/pkg/logger"
)

const liveRatesCacheKey = "live_rates"

// Recommender computes buy-limit recommendations. Every data-driven stage
// has a fallback so a request only fails on a contract violation (unknown
// risk profile); market or model trouble degrades the answer instead.
type Recommender struct {
	provider   drepo.MarketData
	history    drepo.HistoryStore
	featStore  drepo.FeatureStore
	forecaster dservice.AllocationForecaster
	metrics    drepo.Metrics
	cache      pkgcache.Service
	log        *logger.Logger

	historyDays  int
	liveRatesTTL time.Duration
}

func NewRecommender(
	provider drepo.MarketData,
	history drepo.HistoryStore,
	featStore drepo.FeatureStore,
	forecaster dservice.AllocationForecaster,
	metrics drepo.Metrics,
	cache pkgcache.Service,
	log *logger.Logger,
	historyDays int,
	liveRatesTTL time.Duration,
) *Recommender {
	if historyDays <= 0 {
		historyDays = 365
	}
	if liveRatesTTL <= 0 {
		liveRatesTTL = 5 * time.Minute
	}
	return &Recommender{
		provider:     provider,
		history:      history,
		featStore:    featStore,
		forecaster:   forecaster,
		metrics:      metrics,
		cache:        cache,
		log:          log,
		historyDays:  historyDays,
		liveRatesTTL: liveRatesTTL,
	}
}

// RecommendLimit produces the bounded buy limit for one user context. The
// only error it returns is an unknown risk profile; everything else degrades
// through the flat-fallback path.
func (r *Recommender) RecommendLimit(ctx context.Context, user models.UserContext) (*models.Recommendation, error) {
	cfg, err := models.ProfileFor(user.Profile)
	if err != nil {
		return nil, err
	}

	live := r.liveRates(ctx)
	baselineMAE, modelMAE := r.forecaster.MAE()

	rows, ok := r.featureRows(ctx)
	if !ok {
		r.log.Warn("no usable feature history, serving flat fallback",
			logger.String("profile", string(user.Profile)))
		r.metrics.RecordFallback("flat")
		limit := risk.FlatFallback(user.SpendingBalance, cfg)
		return r.build(limit, user, cfg, live, 50, baselineMAE, modelMAE), nil
	}

	fraction := r.forecaster.Predict(ctx, rows)
	snap := risk.SnapshotFrom(rows[len(rows)-1])

	holdingsValue := user.ExistingHoldings * live.BTCUSD * live.USDINR
	smart := risk.SmartLimit(snap, user.SpendingBalance, holdingsValue, cfg)
	limit := risk.Blend(smart, fraction, user.SpendingBalance, user.FirstPurchase, cfg)

	return r.build(limit, user, cfg, live, snap.Sentiment, baselineMAE, modelMAE), nil
}

func (r *Recommender) build(limit float64, user models.UserContext, cfg models.ProfileConfig, live models.LiveRates, sentiment, baselineMAE, modelMAE float64) *models.Recommendation {
	percent := 0.0
	if user.SpendingBalance > 0 {
		percent = round2(limit / user.SpendingBalance * 100)
	}
	return &models.Recommendation{
		BTCUSD:             live.BTCUSD,
		USDINR:             live.USDINR,
		HardLimit:          round6(limit),
		RecommendedPercent: percent,
		RiskProfile:        string(user.Profile),
		MarketSentiment:    models.SentimentLabel(sentiment),
		BaselineMAE:        baselineMAE,
		ModelMAE:           modelMAE,
		UsingFallbackRates: live.Fallback,
	}
}

// liveRates serves the cached snapshot when fresh, otherwise fetches. The
// provider already absorbs upstream failures into flagged fallback rates.
func (r *Recommender) liveRates(ctx context.Context) models.LiveRates {
	if r.cache != nil {
		var raw string
		if err := r.cache.Get(ctx, liveRatesCacheKey, &raw); err == nil {
			var live models.LiveRates
			if json.Unmarshal([]byte(raw), &live) == nil {
				return live
			}
		}
	}
	live, _ := r.provider.FetchLive(ctx)
	if live.Fallback {
		r.metrics.RecordFallback("live_rates")
	} else if r.cache != nil {
		// Fallback snapshots are not cached so recovery is immediate.
		if b, err := json.Marshal(live); err == nil {
			if err := r.cache.Set(ctx, liveRatesCacheKey, string(b), r.liveRatesTTL); err != nil {
				r.log.Warn("live rates cache set failed", logger.Error(err))
			}
		}
	}
	return live
}

// featureRows derives feature rows from the freshest price series available:
// the tick-fed history store first, the HTTP provider second, and the
// persisted feature snapshot as a last resort.
func (r *Recommender) featureRows(ctx context.Context) ([]models.FeatureRow, bool) {
	if series := r.priceSeries(ctx); len(series) > 0 {
		rows, err := features.Compute(series)
		if err == nil {
			return rows, true
		}
		r.log.Warn("feature derivation failed", logger.Error(err), logger.Int("rows", len(series)))
	}

	if r.featStore != nil {
		rows, err := r.featStore.LatestFeatures(ctx, features.MinRows)
		if err == nil && len(rows) > 0 {
			r.metrics.RecordFallback("feature_store")
			return rows, true
		}
	}
	return nil, false
}

func (r *Recommender) priceSeries(ctx context.Context) models.PriceSeries {
	if r.history != nil {
		series, err := r.history.History(ctx, r.historyDays, drepo.GranDaily)
		if err == nil && len(series) >= features.MinRows {
			return series
		}
		if err != nil {
			r.log.Warn("history store unavailable", logger.Error(err))
		}
	}

	series, err := r.provider.FetchHistory(ctx, r.historyDays, drepo.GranDaily)
	if err != nil {
		r.log.Warn("market history fetch failed", logger.Error(err))
		r.metrics.RecordFallback("history")
		return nil
	}
	return series
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
