package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"IndiLimit/internal/domain/repository"
	dservice "IndiLimit/internal/domain/service"
	"IndiLimit/internal/handler/api"
	mid "IndiLimit/internal/middleware"
	internalrepo "IndiLimit/internal/repository"
	icache "IndiLimit/internal/service/cache"
	"IndiLimit/internal/service/ratefeed"
	"IndiLimit/internal/service/ratelimit"
	"IndiLimit/internal/services/forecast"
	"IndiLimit/internal/services/marketdata"
	"IndiLimit/internal/usecase"
	pkgcache "IndiLimit/pkg/cache"
	pkgch "IndiLimit/pkg/clickhouse"
	"IndiLimit/pkg/config"
	pkgkafka "IndiLimit/pkg/kafka"
	applogger "IndiLimit/pkg/logger"
	"IndiLimit/pkg/metrics"
	"IndiLimit/pkg/queue"
	"IndiLimit/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (ts DateTime, symbol String, price Float64, volume Float64, source String, event_id String, seq UInt64) ENGINE=MergeTree ORDER BY (symbol, ts)", ticksTable(cfg)),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (ts DateTime, btc_usd Float64, btc_return Float64, fx_return Float64, btc_vol Float64, fx_vol Float64, trend Float64, sentiment Float64) ENGINE=MergeTree ORDER BY ts", featuresTable(cfg)),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

func ticksTable(cfg *config.Config) string {
	t := cfg.ClickHouse.TicksTable
	if t == "" {
		t = "rate_ticks"
	}
	return cfg.ClickHouse.Database + "." + t
}

func featuresTable(cfg *config.Config) string {
	t := cfg.ClickHouse.FeaturesTable
	if t == "" {
		t = "features"
	}
	return cfg.ClickHouse.Database + "." + t
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHistoryStore creates ClickHouse history storage.
func ProvideHistoryStore(chClient *pkgch.Client, cfg *config.Config) repository.HistoryStore {
	return internalrepo.NewClickHouseHistory(chClient.DB(), ticksTable(cfg), cfg.RateFeed.BTCSymbol, cfg.RateFeed.FXSymbol)
}

// ProvideFeatureStore creates the ClickHouse feature snapshot store.
func ProvideFeatureStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.FeatureStore {
	store := internalrepo.NewCHFeatureStore(chClient, featuresTable(cfg))
	store.SetLogger(l)
	return store
}

// ProvideRatePublisher creates Kafka publisher repository.
func ProvideRatePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RatePublisher {
	return internalrepo.NewKafkaRatePublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaRatesHandler registers handler for the ticks topic.
func ProvideKafkaRatesHandler(store repository.HistoryStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaRatesHandler {
	return usecase.NewKafkaRatesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideRateStream creates the websocket rate stream.
func ProvideRateStream(cfg *config.Config) repository.RateStream {
	return ratefeed.New(
		cfg.RateFeed.APIKey,
		cfg.RateFeed.WebSocketURL,
		cfg.RateFeed.Symbols,
		cfg.RateFeed.ReconnectDelay,
		cfg.RateFeed.PingInterval,
	)
}

// ProvideRateProcessor creates the tick processor use case.
func ProvideRateProcessor(
	pub repository.RatePublisher,
	store repository.HistoryStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.RateProcessor {
	return usecase.NewRateProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideRateCollector creates the tick collector use case.
func ProvideRateCollector(
	stream repository.RateStream,
	processor *usecase.RateProcessor,
	metrics repository.Metrics,
) *usecase.RateCollector {
	// Build middleware pipeline between WebSocket and Kafka
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewRateCollector(stream, processor, metrics, pipe)
}

// ProvideRateLimiter creates the shared upstream token bucket.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideMarketData creates the HTTP market-data provider.
func ProvideMarketData(cfg *config.Config, limiter *ratelimit.Limiter, l *applogger.Logger) repository.MarketData {
	return marketdata.NewProvider(marketdata.Config{
		CoinGeckoURL:   cfg.Market.CoinGeckoURL,
		FrankfurterURL: cfg.Market.FrankfurterURL,
		CryptoID:       cfg.Market.CryptoID,
		HistoryDays:    cfg.Market.HistoryDays,
		Timeout:        cfg.Market.Timeout,
		FallbackBTCUSD: cfg.Market.FallbackBTCUSD,
		FallbackUSDINR: cfg.Market.FallbackUSDINR,
		RateCapacity:   cfg.Market.RateCapacity,
		RateRefillSec:  cfg.Market.RateRefillSec,
	}, limiter, l)
}

// ProvideModelRef creates the atomically swappable model reference.
func ProvideModelRef() *forecast.ModelRef {
	return forecast.NewModelRef()
}

// ProvideForecaster creates the serving forecaster.
func ProvideForecaster(l *applogger.Logger, ref *forecast.ModelRef) dservice.AllocationForecaster {
	return forecast.NewForecaster(l, ref)
}

// ProvideForecastTrainer creates the model trainer.
func ProvideForecastTrainer(cfg *config.Config, l *applogger.Logger) *forecast.Trainer {
	return forecast.NewTrainer(l, cfg.Model.Window, cfg.Model.Epochs, cfg.Model.Seed)
}

// ProvideTrainerUseCase creates the batch training use case.
func ProvideTrainerUseCase(
	provider repository.MarketData,
	history repository.HistoryStore,
	featStore repository.FeatureStore,
	trainer *forecast.Trainer,
	ref *forecast.ModelRef,
	metrics repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Trainer {
	return usecase.NewTrainer(provider, history, featStore, trainer, ref, metrics, l,
		cfg.Model.Dir, cfg.Market.HistoryDays, cfg.Model.Lookforward)
}

// ProvideTTLCache creates the in-process TTL cache.
func ProvideTTLCache() *icache.TTLCache {
	return icache.NewTTLCache()
}

// ProvideLiveRatesCache creates the live-rates snapshot cache. With Redis
// enabled it layers an in-memory L1 over Redis, otherwise memory only.
func ProvideLiveRatesCache(cfg *config.Config) pkgcache.Service {
	if cfg.Redis.Enabled {
		host, port := splitHostPort(cfg.Redis.Addr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
		)
		if err == nil {
			return pkgcache.NewLayeredCache(rc)
		}
	}
	return pkgcache.NewMemoryCache()
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 6379
	}
	return host, port
}

// ProvideRecommender creates the recommendation use case.
func ProvideRecommender(
	provider repository.MarketData,
	history repository.HistoryStore,
	featStore repository.FeatureStore,
	forecaster dservice.AllocationForecaster,
	metrics repository.Metrics,
	cache pkgcache.Service,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Recommender {
	return usecase.NewRecommender(provider, history, featStore, forecaster, metrics, cache, l,
		cfg.Market.HistoryDays, cfg.Model.LiveRatesTTL)
}

// ProvideHistoryUseCase creates the price-history use case.
func ProvideHistoryUseCase(store repository.HistoryStore, provider repository.MarketData, l *applogger.Logger) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(store, provider, l)
}

// ProvideRecommendHandler creates the HTTP handler.
func ProvideRecommendHandler(
	l *applogger.Logger,
	rec *usecase.Recommender,
	history *usecase.HistoryUseCase,
	cache *icache.TTLCache,
	cfg *config.Config,
) *api.RecommendHandler {
	h := api.NewRecommendHandler(l, rec, history)
	if cfg.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		h.SetCache(cache)
	}
	return h
}

// ProvideRetrainQueue creates the Redis-backed retrain queue consumer, or nil
// when queue-driven retraining is disabled.
func ProvideRetrainQueue(cfg *config.Config, l *applogger.Logger, trainer *usecase.Trainer) *queue.RedisQueue {
	if !cfg.Redis.Enabled || !cfg.Model.Retrain.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return queue.NewRedisConsumer(l,
		&queue.QueueConfig{Workers: cfg.Model.Retrain.Workers},
		client,
		[]queue.Job{usecase.NewRetrainJob(trainer, l)},
	)
}

// logPublisher adapts the Kafka producer to the log-aggregation publisher.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.RateCollector,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	kh *usecase.KafkaRatesHandler,
	chClient *pkgch.Client,
	ref *forecast.ModelRef,
	retrainQueue *queue.RedisQueue,
	handler *api.RecommendHandler,
) *server.App {
	// Attach hook to consumer: example NoopHook for now; can be replaced via config
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	// Aggregate repeated error logs onto a side topic to keep log volume down
	if producer != nil && cfg.Kafka.Topic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + "-logs",
			Publisher:      logPublisher{p: producer},
		})
	}
	app := server.New(cfg, l, collector, consumer, kh, chClient, ref, retrainQueue)
	app.SetHTTPHandler(handler)
	// attach rate processor to app for closing resources via collector
	if collector != nil {
		app.RateProc = collector.Processor()
	}
	return app
}
