package repository

import (
	"context"

	"IndiLimit/internal/domain/models"
)

// MarketData supplies historical and live rates over HTTP. The provider must
// never fail a live fetch hard: on upstream errors it returns fixed fallback
// rates flagged as such.
type MarketData interface {
	FetchHistory(ctx context.Context, days int, g Granularity) (models.PriceSeries, error)
	FetchLive(ctx context.Context) (models.LiveRates, error)
}

// RateStream is a live websocket feed of rate ticks.
type RateStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.RateTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// RatePublisher publishes ticks to the message backend.
type RatePublisher interface {
	Publish(ctx context.Context, t *models.RateTick) error
	PublishBatch(ctx context.Context, ticks []*models.RateTick) error
	Close() error
}

// HistoryStore persists raw rate ticks and serves the joined BTC/FX price
// series that feature derivation and training consume.
type HistoryStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, t *models.RateTick) error
	StoreBatch(ctx context.Context, ticks []*models.RateTick) error
	History(ctx context.Context, days int, g Granularity) (models.PriceSeries, error)
	Health(ctx context.Context) error
	Close() error
}

// FeatureStore persists derived feature rows so degraded requests can fall
// back to the last known market state when both upstream feeds are down.
type FeatureStore interface {
	SaveFeatures(ctx context.Context, rows []models.FeatureRow) error
	LatestFeatures(ctx context.Context, n int) ([]models.FeatureRow, error)
}

// Metrics records operational measurements.
type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastRate(symbol string, rate float64)
	RecordLatency(op string, seconds float64)
	RecordFallback(stage string)
	RecordMAE(model string, mae float64)
}
