package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"IndiLimit/internal/domain/models"
	drepo "IndiLimit/internal/domain/repository"
	pkgkafka "IndiLimit/pkg/kafka"
)

// ClickHouseHistory implements HistoryStore for ClickHouse. Raw ticks land in
// one table; History serves the bucketed BTC/FX join that feature derivation
// consumes.
type ClickHouseHistory struct {
	db        *sql.DB
	table     string
	btcSymbol string
	fxSymbol  string
}

// NewClickHouseHistory creates ClickHouse-backed history storage.
func NewClickHouseHistory(db *sql.DB, table, btcSymbol, fxSymbol string) drepo.HistoryStore {
	return &ClickHouseHistory{db: db, table: table, btcSymbol: btcSymbol, fxSymbol: fxSymbol}
}

func (s *ClickHouseHistory) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseHistory) Store(ctx context.Context, t *models.RateTick) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume, source, event_id, seq) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	// Idempotency placeholders: event_id and seq derived from symbol+timestamp
	eventID := fmt.Sprintf("%s-%d", t.Symbol, t.Timestamp)
	seq := uint64(t.Timestamp)
	_, err := s.db.ExecContext(ctx, q,
		time.Unix(t.Timestamp, 0),
		t.Symbol,
		t.Price,
		t.Volume,
		"ratefeed",
		eventID,
		seq,
	)
	return err
}

func (s *ClickHouseHistory) StoreBatch(ctx context.Context, ticks []*models.RateTick) error {
	if len(ticks) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, t := range ticks[start:end] {
			if t == nil || t.Symbol == "" || t.Timestamp == 0 {
				continue
			}
			eventID := fmt.Sprintf("%s-%d", t.Symbol, t.Timestamp)
			seq := uint64(t.Timestamp)
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				time.Unix(t.Timestamp, 0),
				t.Symbol,
				t.Price,
				t.Volume,
				"ratefeed",
				eventID,
				seq,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume, source, event_id, seq) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// History buckets the last `days` of ticks per symbol, keeps the latest tick
// of each bucket, and inner-joins the BTC and FX buckets into a price series.
// Buckets one feed lacks are dropped.
func (s *ClickHouseHistory) History(ctx context.Context, days int, g drepo.Granularity) (models.PriceSeries, error) {
	bucket := bucketExpr(g)
	from := time.Now().UTC().AddDate(0, 0, -days)

	q := fmt.Sprintf(`
		SELECT b.bucket, b.price, f.price
		FROM (
			SELECT %[1]s AS bucket, argMax(price, ts) AS price
			FROM %[2]s WHERE symbol = ? AND ts >= ? GROUP BY bucket
		) AS b
		INNER JOIN (
			SELECT %[1]s AS bucket, argMax(price, ts) AS price
			FROM %[2]s WHERE symbol = ? AND ts >= ? GROUP BY bucket
		) AS f USING bucket
		ORDER BY b.bucket ASC`, bucket, s.table)

	rows, err := s.db.QueryContext(ctx, q, s.btcSymbol, from, s.fxSymbol, from)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var series models.PriceSeries
	for rows.Next() {
		var p models.RatePoint
		if err := rows.Scan(&p.Timestamp, &p.BTCUSD, &p.USDINR); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, rows.Err()
}

func bucketExpr(g drepo.Granularity) string {
	switch g {
	case drepo.GranHourly:
		return "toStartOfHour(ts)"
	case drepo.GranWeekly:
		return "toStartOfDay(toMonday(ts))"
	default:
		return "toStartOfDay(ts)"
	}
}

func (s *ClickHouseHistory) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseHistory) Close() error {
	return nil // Managed by pkg
}

// KafkaRatePublisher implements RatePublisher for Kafka.
type KafkaRatePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRatePublisher creates a Kafka publisher.
func NewKafkaRatePublisher(producer *pkgkafka.Producer, topic string) drepo.RatePublisher {
	return &KafkaRatePublisher{producer: producer, topic: topic}
}

func (p *KafkaRatePublisher) Publish(ctx context.Context, t *models.RateTick) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.Symbol), map[string]interface{}{
		"symbol": t.Symbol,
		"t":      t.Timestamp,
		"c":      t.Price,
		"v":      t.Volume,
	})
}

func (p *KafkaRatePublisher) PublishBatch(ctx context.Context, ticks []*models.RateTick) error {
	if len(ticks) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ticks))
	for i, t := range ticks {
		msgs[i] = pkgkafka.Message{
			Key: []byte(t.Symbol),
			Value: map[string]interface{}{
				"symbol": t.Symbol,
				"t":      t.Timestamp,
				"c":      t.Price,
				"v":      t.Volume,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaRatePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
