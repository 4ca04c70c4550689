package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "StratCore/internal/domain/repository"
	"StratCore/internal/usecase"
	pkgch "StratCore/pkg/clickhouse"
	"StratCore/pkg/config"
	xhttp "StratCore/pkg/http"
	pkgkafka "StratCore/pkg/kafka"
	applogger "StratCore/pkg/logger"
)

// App encapsulates the entire application lifecycle: backfill, stream,
// selector loop, outcome consumer, and the HTTP surface.
type App struct {
	cfg       *config.Config
	logger    *applogger.Logger
	stream    drepo.MarketStream
	collector *usecase.MarketCollector
	writer    *usecase.CandleWriter
	backfill  *usecase.HistoricalBackfill
	selector  *usecase.StrategySelector
	consumer  *pkgkafka.Consumer
	oh        pkgkafka.MessageHandler
	chClient  *pkgch.Client
	publisher drepo.SelectionPublisher

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	stream drepo.MarketStream,
	collector *usecase.MarketCollector,
	writer *usecase.CandleWriter,
	backfill *usecase.HistoricalBackfill,
	selector *usecase.StrategySelector,
	consumer *pkgkafka.Consumer,
	oh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	publisher drepo.SelectionPublisher,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		stream:    stream,
		collector: collector,
		writer:    writer,
		backfill:  backfill,
		selector:  selector,
		consumer:  consumer,
		oh:        oh,
		chClient:  chClient,
		publisher: publisher,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Warm the cache before the selector's first cycle; a failed pair just
	// means the stream fills it in later.
	if a.backfill != nil {
		if err := a.backfill.Run(ctx); err != nil {
			l.Warn("backfill interrupted", applogger.Error(err))
		}
	}

	if a.writer != nil {
		a.writer.Start(ctx)
	}

	if err := a.stream.Start(ctx, a.collector.HandleEvent); err != nil {
		l.Error("market stream start error", applogger.Error(err))
		return err
	}
	l.Info("market stream started", applogger.Strings("symbols", a.cfg.Binance.Symbols))

	go a.selector.Run(ctx)
	l.Info("strategy selector started", applogger.Duration("interval", a.cfg.Selector.Interval))

	// Start outcome consumer if configured
	if a.consumer != nil && a.oh != nil {
		a.consumer.RegisterHandler(a.oh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("outcome consumer started", applogger.String("topic", a.oh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(cancel)
}

// shutdown gracefully stops all services. The stream goes first so no new
// events arrive while the writer drains.
func (a *App) shutdown(cancel context.CancelFunc) error {
	l := a.logger

	if err := a.stream.Stop(); err != nil {
		l.Warn("stream stop error", applogger.Error(err))
	}

	// Stops the selector loop and the backfill/writer contexts.
	cancel()

	if a.writer != nil {
		a.writer.Stop()
	}

	shutdownCtx, cancelHTTP := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancelHTTP()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("selection publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
