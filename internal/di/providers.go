package di

import (
	"context"
	"fmt"
	"time"

	drepo "StockWatch/internal/domain/repository"
	"StockWatch/internal/handler/api"
	internalrepo "StockWatch/internal/repository"
	"StockWatch/internal/service/marketdata"
	"StockWatch/internal/service/push"
	"StockWatch/internal/service/quotecache"
	"StockWatch/internal/usecase"
	pkgcache "StockWatch/pkg/cache"
	pkgch "StockWatch/pkg/clickhouse"
	"StockWatch/pkg/config"
	xhttp "StockWatch/pkg/http"
	pkgkafka "StockWatch/pkg/kafka"
	applogger "StockWatch/pkg/logger"
	"StockWatch/pkg/metrics"
	"StockWatch/pkg/server"
	"StockWatch/pkg/task"

	"github.com/labstack/echo/v4"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvidePersistence selects SQLite when a store path is configured and
// falls back to the in-memory store otherwise.
func ProvidePersistence(cfg *config.Config) (internalrepo.Persistence, error) {
	if cfg.Store.Path == "" {
		return internalrepo.NewMemoryStore(), nil
	}
	store, err := internalrepo.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: %w", err)
	}
	return store, nil
}

// ProvideSnapshotCache creates the Redis snapshot layer, or nil when Redis
// is disabled.
func ProvideSnapshotCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideQuoteCache creates the in-memory quote cache, write-through to the
// snapshot layer when one exists.
func ProvideQuoteCache(cfg *config.Config, snap pkgcache.Service) *quotecache.Cache {
	opts := []quotecache.Option{}
	if snap != nil {
		opts = append(opts, quotecache.WithSnapshotLayer(snap, cfg.Redis.TTL))
	}
	return quotecache.New(cfg.Quotes.TTL, opts...)
}

// ProvideQuoteProvider creates the upstream market data client.
func ProvideQuoteProvider(cfg *config.Config) drepo.QuoteProvider {
	return marketdata.New(cfg.Quotes.APIURL, cfg.Quotes.APIKey, cfg.Quotes.FetchTimeout)
}

// ProvideHistoryStore creates the ClickHouse close history store, or nil
// when history is disabled.
func ProvideHistoryStore(cfg *config.Config) (drepo.HistoryStore, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.History.Host),
		pkgch.WithPort(cfg.History.Port),
		pkgch.WithDatabase(cfg.History.Database),
		pkgch.WithCredentials(cfg.History.User, cfg.History.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.History.DialTimeout, cfg.History.ReadTimeout, cfg.History.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	repo, err := internalrepo.NewHistoryRepository(ctx, client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return repo, nil
}

// ProvideAlertPublisher creates the Kafka trigger event publisher, or nil
// when Kafka is disabled.
func ProvideAlertPublisher(cfg *config.Config) (drepo.AlertEventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewAlertPublisher(producer, cfg.Kafka.AlertsTopic), nil
}

// ProvideKafkaConsumer creates the quote tick consumer, or nil when Kafka is
// disabled or no quotes topic is configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.QuotesTopic == "" {
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

// ProvideQuoteTickHandler registers the handler for the quotes topic.
func ProvideQuoteTickHandler(cfg *config.Config, cache *quotecache.Cache, m drepo.Metrics, log *applogger.Logger) *usecase.QuoteTickHandler {
	return usecase.NewQuoteTickHandler(cfg.Kafka.QuotesTopic, cache, m, log)
}

// ProvideRegistry creates the live connection registry.
func ProvideRegistry(m drepo.Metrics) *push.Registry {
	return push.NewRegistry(m)
}

// ProvideNotificationQueue creates the durable delivery queue.
func ProvideNotificationQueue(
	cfg *config.Config,
	store internalrepo.Persistence,
	registry *push.Registry,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.NotificationQueue {
	retention := time.Duration(cfg.Notifications.RetentionDays) * 24 * time.Hour
	return usecase.NewNotificationQueue(store, registry, m, log, retention)
}

// ProvideRefresher creates the refresh scheduler core.
func ProvideRefresher(
	cfg *config.Config,
	cache *quotecache.Cache,
	provider drepo.QuoteProvider,
	store internalrepo.Persistence,
	history drepo.HistoryStore,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.Refresher {
	opts := []usecase.RefresherOption{}
	if history != nil {
		opts = append(opts, usecase.WithHistoryStore(history))
	}
	return usecase.NewRefresher(
		cache, provider, store, m, log,
		cfg.Quotes.DefaultSymbols,
		cfg.Refresh.Concurrency,
		cfg.Refresh.MinSuccess,
		opts...,
	)
}

// ProvideAlertEngine creates the alert evaluation core.
func ProvideAlertEngine(
	cache *quotecache.Cache,
	store internalrepo.Persistence,
	queue *usecase.NotificationQueue,
	registry *push.Registry,
	refresher *usecase.Refresher,
	publisher drepo.AlertEventPublisher,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.AlertEngine {
	opts := []usecase.AlertEngineOption{usecase.WithQuoteFallback(refresher)}
	if publisher != nil {
		opts = append(opts, usecase.WithEventPublisher(publisher))
	}
	return usecase.NewAlertEngine(cache, store, store, queue, registry, m, log, opts...)
}

// ProvideBroadcaster creates the ambient stock update broadcaster.
func ProvideBroadcaster(cache *quotecache.Cache, registry *push.Registry, log *applogger.Logger) *usecase.Broadcaster {
	return usecase.NewBroadcaster(cache, registry, log)
}

// ProvideStocks creates the stock read service.
func ProvideStocks(cache *quotecache.Cache, refresher *usecase.Refresher, store internalrepo.Persistence, history drepo.HistoryStore) *usecase.Stocks {
	return usecase.NewStocks(cache, refresher, store, history)
}

// ProvideAlerts creates the alert rule service.
func ProvideAlerts(store internalrepo.Persistence) *usecase.Alerts {
	return usecase.NewAlerts(store, store)
}

// ProvideRunners builds the periodic loops on the shared task runner.
func ProvideRunners(
	cfg *config.Config,
	refresher *usecase.Refresher,
	engine *usecase.AlertEngine,
	queue *usecase.NotificationQueue,
	broadcaster *usecase.Broadcaster,
) *server.Runners {
	return &server.Runners{
		Refresh:   task.NewRunner("refresh", cfg.Refresh.Interval, refresher.Tick),
		Alerts:    task.NewRunner("alerts", cfg.Alerts.Interval, engine.Tick),
		Flush:     task.NewRunner("notification_flush", cfg.Notifications.FlushInterval, queue.Flush),
		Broadcast: task.NewRunner("broadcast", cfg.Broadcast.Interval, broadcaster.Tick),
		Archive:   task.NewRunner("notification_archive", 24*time.Hour, queue.Archive),
	}
}

// routes aggregates every handler into one registration point.
type routes struct {
	handlers []xhttp.Handler
}

func (r *routes) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}

// ProvideHTTPHandler builds the route table.
func ProvideHTTPHandler(
	log *applogger.Logger,
	stocks *usecase.Stocks,
	alerts *usecase.Alerts,
	queue *usecase.NotificationQueue,
	registry *push.Registry,
	runners *server.Runners,
) xhttp.Handler {
	return &routes{handlers: []xhttp.Handler{
		api.NewStocksEchoHandler(log, stocks),
		api.NewAlertsEchoHandler(log, alerts, queue),
		api.NewStatusEchoHandler(stocks, registry, runners.All()...),
		api.NewWSEchoHandler(log, registry),
	}}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	cache *quotecache.Cache,
	runners *server.Runners,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	kh *usecase.QuoteTickHandler,
	store internalrepo.Persistence,
	history drepo.HistoryStore,
	publisher drepo.AlertEventPublisher,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = kh
	}
	app := server.New(cfg, log, cache, runners, handler, consumer, mh)
	app.AddCloser(store)
	if history != nil {
		app.AddCloser(history)
	}
	if publisher != nil {
		app.AddCloser(publisher)
	}
	return app
}
