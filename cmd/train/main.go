package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"IndiLimit/internal/service/ratelimit"
	"IndiLimit/internal/services/forecast"
	"IndiLimit/internal/services/marketdata"
	"IndiLimit/internal/usecase"
	"IndiLimit/pkg/config"
	applogger "IndiLimit/pkg/logger"
	"IndiLimit/pkg/metrics"
)

// Standalone training job. Fetches price history over HTTP, fits the
// allocation model, and writes the artifact where the API server loads it.
func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	days := flag.Int("days", 0, "history span in days (0 uses market.history_days)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	provider := marketdata.NewProvider(marketdata.Config{
		CoinGeckoURL:   cfg.Market.CoinGeckoURL,
		FrankfurterURL: cfg.Market.FrankfurterURL,
		CryptoID:       cfg.Market.CryptoID,
		HistoryDays:    cfg.Market.HistoryDays,
		Timeout:        cfg.Market.Timeout,
		FallbackBTCUSD: cfg.Market.FallbackBTCUSD,
		FallbackUSDINR: cfg.Market.FallbackUSDINR,
		RateCapacity:   cfg.Market.RateCapacity,
		RateRefillSec:  cfg.Market.RateRefillSec,
	}, ratelimit.New(), l)

	fitter := forecast.NewTrainer(l, cfg.Model.Window, cfg.Model.Epochs, cfg.Model.Seed)
	trainer := usecase.NewTrainer(provider, nil, nil, fitter, nil, metrics.New(), l,
		cfg.Model.Dir, cfg.Market.HistoryDays, cfg.Model.Lookforward)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := trainer.RunDays(ctx, *days); err != nil {
		l.Error("training run failed", applogger.Error(err))
		os.Exit(1)
	}
	l.Info("training run complete", applogger.String("model_dir", cfg.Model.Dir))
}
