package usecase

import (
	"context"
	"encoding/json"
	"time"

	"IndiLimit/internal/domain/models"
	domrepo "IndiLimit/internal/domain/repository"
	pkgkafka "IndiLimit/pkg/kafka"
)

// KafkaRatesHandler consumes tick messages off Kafka and writes to storage.
type KafkaRatesHandler struct {
	topic   string
	storage domrepo.HistoryStore
	metrics domrepo.Metrics
}

func NewKafkaRatesHandler(topic string, storage domrepo.HistoryStore, metrics domrepo.Metrics) *KafkaRatesHandler {
	return &KafkaRatesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaRatesHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, c, v}
func (h *KafkaRatesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.RateTick{
		Symbol:    m.Symbol,
		Timestamp: m.T,
		Price:     m.C,
		Volume:    m.V,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRatesHandler)(nil)
