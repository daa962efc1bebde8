package usecase

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndiLimit/internal/domain/models"
)

type capturingStore struct {
	stubHistoryStore
	ticks []*models.RateTick
}

func (s *capturingStore) Store(_ context.Context, t *models.RateTick) error {
	s.ticks = append(s.ticks, t)
	return s.err
}

func TestKafkaRatesHandlerStoresTick(t *testing.T) {
	store := &capturingStore{}
	h := NewKafkaRatesHandler("rate-ticks", store, newRecordingMetrics())
	assert.Equal(t, "rate-ticks", h.Topic())

	now := time.Now().Unix()
	msg := []byte(`{"symbol":"BTC-USD","t":` + formatInt(now) + `,"c":97000.5,"v":1.25}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, store.ticks, 1)
	tick := store.ticks[0]
	assert.Equal(t, "BTC-USD", tick.Symbol)
	assert.Equal(t, now, tick.Timestamp)
	assert.Equal(t, 97000.5, tick.Price)
	assert.Equal(t, 1.25, tick.Volume)
}

func TestKafkaRatesHandlerMillisecondTimestamps(t *testing.T) {
	store := &capturingStore{}
	h := NewKafkaRatesHandler("rate-ticks", store, newRecordingMetrics())

	now := time.Now()
	msg := []byte(`{"symbol":"USD-INR","t":` + formatInt(now.UnixMilli()) + `,"c":83.2,"v":0}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, store.ticks, 1)
	assert.Equal(t, now.Unix(), store.ticks[0].Timestamp, "millisecond timestamps normalize to seconds")
}

func TestKafkaRatesHandlerBadPayload(t *testing.T) {
	store := &capturingStore{}
	h := NewKafkaRatesHandler("rate-ticks", store, newRecordingMetrics())
	require.Error(t, h.Handle(context.Background(), []byte("{broken")))
	assert.Empty(t, store.ticks)
}

func TestKafkaRatesHandlerStoreError(t *testing.T) {
	store := &capturingStore{}
	store.err = context.DeadlineExceeded
	h := NewKafkaRatesHandler("rate-ticks", store, newRecordingMetrics())
	msg := []byte(`{"symbol":"BTC-USD","t":1700000000,"c":97000,"v":1}`)
	require.Error(t, h.Handle(context.Background(), msg))
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }
