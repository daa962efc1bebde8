package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"IndiLimit/internal/domain/models"
	"IndiLimit/internal/services/forecast"
	"IndiLimit/internal/usecase"
	pkgch "IndiLimit/pkg/clickhouse"
	"IndiLimit/pkg/config"
	xhttp "IndiLimit/pkg/http"
	pkgkafka "IndiLimit/pkg/kafka"
	applogger "IndiLimit/pkg/logger"
	"IndiLimit/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg          *config.Config
	log          *applogger.Logger
	collector    *usecase.RateCollector
	consumer     *pkgkafka.Consumer
	kh           pkgkafka.MessageHandler
	chClient     *pkgch.Client
	ref          *forecast.ModelRef
	retrainQueue *queue.RedisQueue
	httpServer   *xhttp.Server
	httpHandler  xhttp.Handler
	RateProc     *usecase.RateProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.RateCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	ref *forecast.ModelRef,
	retrainQueue *queue.RedisQueue,
) *App {
	return &App{
		cfg:          cfg,
		log:          l,
		collector:    collector,
		consumer:     consumer,
		kh:           kh,
		chClient:     chClient,
		ref:          ref,
		retrainQueue: retrainQueue,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.log

	// Load the last trained model artifact if one exists on disk.
	// Missing or corrupt artifacts are not fatal: the forecaster serves
	// its flat fallback until the trainer publishes a fresh one.
	if a.ref != nil {
		if artifact, err := forecast.LoadArtifact(a.cfg.Model.Dir); err != nil {
			if errors.Is(err, models.ErrModelUnavailable) {
				l.Warn("no model artifact loaded, serving fallback predictions", applogger.Error(err))
			} else {
				l.Error("model artifact load error", applogger.Error(err))
			}
		} else {
			a.ref.Swap(artifact)
			l.Info("model artifact loaded",
				applogger.String("trained_at", artifact.TrainedAt.Format("2006-01-02T15:04:05Z07:00")),
				applogger.Any("has_model", artifact.HasModel()),
			)
		}
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.RateFeed.Symbols))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start retrain queue workers if configured
	if a.retrainQueue != nil {
		if err := a.retrainQueue.Start(); err != nil {
			l.Error("retrain queue start error", applogger.Error(err))
		} else {
			l.Info("retrain queue started")
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.log
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	// Stop retrain queue workers
	if a.retrainQueue != nil {
		if err := a.retrainQueue.Stop(shutdownCtx); err != nil {
			l.Warn("retrain queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close rate processor resources (publisher/storage)
	if a.RateProc != nil {
		a.RateProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
