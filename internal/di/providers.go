package di

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"StratCore/internal/domain/repository"
	domsvc "StratCore/internal/domain/service"
	"StratCore/internal/handler/api"
	internalrepo "StratCore/internal/repository"
	"StratCore/internal/service/binance"
	"StratCore/internal/service/marketcache"
	"StratCore/internal/services/analytics"
	"StratCore/internal/usecase"
	pkgch "StratCore/pkg/clickhouse"
	"StratCore/pkg/config"
	xhttp "StratCore/pkg/http"
	pkgkafka "StratCore/pkg/kafka"
	applogger "StratCore/pkg/logger"
	"StratCore/pkg/metrics"
	"StratCore/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideMarketCache creates the in-memory market state cache.
func ProvideMarketCache() *marketcache.Cache {
	return marketcache.New(marketcache.DefaultRingCapacity)
}

// ProvideClickHouseClient creates a ClickHouse client and ensures schema.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(
		[]string{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database)},
		internalrepo.SchemaStatements(cfg.ClickHouse.Database)...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideOutcomeStore creates the trade outcome repository.
func ProvideOutcomeStore(chClient *pkgch.Client) repository.OutcomeStore {
	return internalrepo.NewClickHouseOutcomeStore(chClient.DB())
}

// ProvideSelectionStore creates the selection audit repository.
func ProvideSelectionStore(chClient *pkgch.Client) repository.SelectionStore {
	return internalrepo.NewClickHouseSelectionStore(chClient.DB())
}

// ProvideCandleStore creates the candle warm-start repository.
func ProvideCandleStore(chClient *pkgch.Client) repository.CandleStore {
	return internalrepo.NewClickHouseCandleStore(chClient.DB())
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
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

// ProvideSelectionPublisher creates the selection publisher, nil without Kafka.
func ProvideSelectionPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SelectionPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSelectionPublisher(producer, cfg.Kafka.SelectionsTopic)
}

// ProvideKafkaConsumer creates the outcome consumer, nil without Kafka.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.OutcomesTopic == "" {
		return nil, nil
	}
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

// ProvideTickMirror creates the Redis hot-state mirror, nil when disabled.
func ProvideTickMirror(cfg *config.Config) repository.TickMirror {
	if !cfg.Redis.Enabled {
		return nil
	}
	return internalrepo.NewRedisMirror(internalrepo.RedisMirrorConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TickTTL:  cfg.Redis.TickTTL,
	})
}

// ProvideMarketStream creates the Binance WebSocket transport. The Redis
// mirror rides along as a stream observer so a slow mirror never blocks
// the collector's cache path.
func ProvideMarketStream(cfg *config.Config, l *applogger.Logger, m repository.Metrics, mirror repository.TickMirror) repository.MarketStream {
	stream := binance.New(binance.Config{
		URL:               cfg.Binance.WebSocketURL,
		Symbols:           cfg.Binance.Symbols,
		Timeframes:        cfg.Binance.Timeframes,
		MaxStreamsPerConn: cfg.Binance.MaxStreamsPerConn,
		BaseDelay:         cfg.Binance.BackoffBase,
		MaxDelay:          cfg.Binance.BackoffMax,
		HeartbeatInterval: cfg.Binance.HeartbeatInterval,
		PongTimeout:       cfg.Binance.PongTimeout,
	}, l, m)
	if mirror != nil {
		stream.AddObserver(usecase.NewTickMirrorObserver(mirror, m, l).HandleEvent)
	}
	return stream
}

// ProvideCandleHistory creates the Binance REST kline client.
func ProvideCandleHistory(cfg *config.Config) repository.CandleHistory {
	httpClient := xhttp.NewClient(xhttp.WithTimeout(15 * time.Second))
	return binance.NewHistoryClient(cfg.Binance.RestURL, httpClient)
}

// ProvideRegimeClassifier creates the classifier over the market cache.
func ProvideRegimeClassifier(cfg *config.Config, cache *marketcache.Cache) domsvc.RegimeClassifier {
	refSymbol := cfg.Classifier.RefSymbol
	if refSymbol == "" {
		refSymbol = "BTCUSDT"
	}
	timeframe := cfg.Classifier.Timeframe
	if timeframe == "" {
		timeframe = "15m"
	}
	opts := []analytics.ClassifierOption{}
	if cfg.Classifier.VolBand > 0 {
		opts = append(opts, analytics.WithVolBand(cfg.Classifier.VolBand))
	}
	if cfg.Classifier.TrendBand > 0 {
		opts = append(opts, analytics.WithTrendBand(cfg.Classifier.TrendBand))
	}
	return analytics.NewClassifier(cache, refSymbol, timeframe, opts...)
}

// ProvidePerformanceTracker creates the outcome tracker.
func ProvidePerformanceTracker(store repository.OutcomeStore, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.PerformanceTracker {
	return usecase.NewPerformanceTracker(store, m, l, cfg.Selector.PerfCacheTTL)
}

// ProvideStrategySelector creates the selection loop.
func ProvideStrategySelector(
	classifier domsvc.RegimeClassifier,
	tracker *usecase.PerformanceTracker,
	selections repository.SelectionStore,
	publisher repository.SelectionPublisher,
	mirror repository.TickMirror,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.StrategySelector {
	userID := cfg.Selector.UserID
	if userID == "" {
		userID = "default"
	}
	return usecase.NewStrategySelector(classifier, tracker, selections, publisher, mirror, m, l, userID, cfg.Selector.Interval)
}

// ProvideParameterValidator creates the advisory validator.
func ProvideParameterValidator(cache *marketcache.Cache, l *applogger.Logger) *usecase.ParameterValidator {
	return usecase.NewParameterValidator(cache, l)
}

// ProvideCandleWriter creates the async candle persister.
func ProvideCandleWriter(store repository.CandleStore, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.CandleWriter {
	return usecase.NewCandleWriter(store, m, l, cfg.CandleWriter.BatchSize, cfg.CandleWriter.FlushInterval)
}

// ProvideMarketCollector creates the stream event sink.
func ProvideMarketCollector(cache *marketcache.Cache, writer *usecase.CandleWriter, m repository.Metrics, l *applogger.Logger) *usecase.MarketCollector {
	return usecase.NewMarketCollector(cache, writer, m, l)
}

// ProvideHistoricalBackfill creates the startup backfill.
func ProvideHistoricalBackfill(
	cache *marketcache.Cache,
	history repository.CandleHistory,
	store repository.CandleStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.HistoricalBackfill {
	tfs := make([]repository.Timeframe, 0, len(cfg.Binance.Timeframes))
	for _, tf := range cfg.Binance.Timeframes {
		tfs = append(tfs, repository.NormalizeTimeframe(tf))
	}
	return usecase.NewHistoricalBackfill(cache, history, store, m, l,
		cfg.Binance.Symbols, tfs, cfg.Backfill.Limit, cfg.Backfill.InterBatchDelay)
}

// ProvideOutcomesHandler registers the outcome topic consumer handler.
func ProvideOutcomesHandler(tracker *usecase.PerformanceTracker, m repository.Metrics, cfg *config.Config) *usecase.OutcomesHandler {
	return usecase.NewOutcomesHandler(cfg.Kafka.OutcomesTopic, tracker, m)
}

// ProvideTradingHandler creates the HTTP API handler.
func ProvideTradingHandler(
	l *applogger.Logger,
	cache *marketcache.Cache,
	classifier domsvc.RegimeClassifier,
	selector *usecase.StrategySelector,
	tracker *usecase.PerformanceTracker,
	validator *usecase.ParameterValidator,
	stream repository.MarketStream,
) *api.TradingHandler {
	return api.NewTradingHandler(l, cache, classifier, selector, tracker, validator, stream)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	stream repository.MarketStream,
	collector *usecase.MarketCollector,
	writer *usecase.CandleWriter,
	backfill *usecase.HistoricalBackfill,
	selector *usecase.StrategySelector,
	consumer *pkgkafka.Consumer,
	oh *usecase.OutcomesHandler,
	chClient *pkgch.Client,
	publisher repository.SelectionPublisher,
	handler *api.TradingHandler,
) *server.App {
	var kh pkgkafka.MessageHandler
	if consumer != nil && oh != nil {
		consumer.WithConsumerHook(pkgkafka.HookFuncs{
			Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				ctx = pkgkafka.WithStartTime(ctx, time.Now())
				ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
				return ctx, km, data, nil
			},
			Err: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
				l.Warn("consumer message failed",
					applogger.String("topic", topic),
					applogger.Error(err))
			},
		})
		kh = oh
	}
	app := server.New(cfg, l, stream, collector, writer, backfill, selector, consumer, kh, chClient, publisher)
	app.SetHTTPHandler(handler)
	return app
}
