package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"IndiLimit/internal/domain/models"
	pkgch "IndiLimit/pkg/clickhouse"
	applogger "IndiLimit/pkg/logger"
)

// CHFeatureStore implements FeatureStore backed by ClickHouse.
type CHFeatureStore struct {
	ch    *pkgch.Client
	table string
	l     *applogger.Logger
}

func NewCHFeatureStore(ch *pkgch.Client, table string) *CHFeatureStore {
	return &CHFeatureStore{ch: ch, table: table}
}

// SetLogger injects a structured logger.
func (s *CHFeatureStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHFeatureStore) SaveFeatures(ctx context.Context, rows []models.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*8)
	for _, r := range rows {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			r.Timestamp,
			r.BTCUSD,
			r.BTCReturn,
			r.FXReturn,
			r.BTCVolatility,
			r.FXVolatility,
			r.Trend,
			r.Sentiment,
		)
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, btc_usd, btc_return, fx_return, btc_vol, fx_vol, trend, sentiment) VALUES %s",
		s.table, strings.Join(values, ","))

	if _, err := s.ch.DB().ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse save_features error",
				applogger.String("table", s.table),
				applogger.Int("rows", len(rows)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("save features: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse save_features ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHFeatureStore) LatestFeatures(ctx context.Context, n int) ([]models.FeatureRow, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, btc_usd, btc_return, fx_return, btc_vol, fx_vol, trend, sentiment
        FROM (
            SELECT * FROM %s ORDER BY ts DESC LIMIT ?
        )
        ORDER BY ts ASC
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.ch.DB().QueryContext(ctx, q, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_features query error",
				applogger.String("table", s.table),
				applogger.Int("n", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest features: %w", err)
	}
	defer rows.Close()

	out := make([]models.FeatureRow, 0, n)
	for rows.Next() {
		var r models.FeatureRow
		if err := rows.Scan(&r.Timestamp, &r.BTCUSD, &r.BTCReturn, &r.FXReturn, &r.BTCVolatility, &r.FXVolatility, &r.Trend, &r.Sentiment); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse latest_features scan error",
					applogger.String("table", s.table),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_features ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}
