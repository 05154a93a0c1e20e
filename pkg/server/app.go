package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"StockWatch/internal/service/quotecache"
	"StockWatch/pkg/config"
	xhttp "StockWatch/pkg/http"
	pkgkafka "StockWatch/pkg/kafka"
	applogger "StockWatch/pkg/logger"
	"StockWatch/pkg/task"
)

// Runners bundles the application's periodic loops.
type Runners struct {
	Refresh   *task.Runner
	Alerts    *task.Runner
	Flush     *task.Runner
	Broadcast *task.Runner
	Archive   *task.Runner
}

// All returns every non-nil runner.
func (r *Runners) All() []*task.Runner {
	out := []*task.Runner{}
	for _, rn := range []*task.Runner{r.Refresh, r.Alerts, r.Flush, r.Broadcast, r.Archive} {
		if rn != nil {
			out = append(out, rn)
		}
	}
	return out
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg     *config.Config
	log     *applogger.Logger
	cache   *quotecache.Cache
	runners *Runners

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler

	consumer *pkgkafka.Consumer
	kh       pkgkafka.MessageHandler

	// closed on shutdown, in order
	closers []io.Closer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	cache *quotecache.Cache,
	runners *Runners,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		cache:       cache,
		runners:     runners,
		httpHandler: handler,
		consumer:    consumer,
		kh:          kh,
	}
}

// AddCloser registers a resource closed during shutdown.
func (a *App) AddCloser(c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, c)
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm the cache from the snapshot layer before the first refresh pass.
	if n := a.cache.Restore(ctx); n > 0 {
		a.log.Info("cache restored from snapshot", applogger.Int("quotes", n))
	}

	for _, r := range a.runners.All() {
		if err := r.Start(); err != nil {
			return err
		}
	}
	a.log.Info("periodic loops started",
		applogger.Int("count", len(a.runners.All())),
		applogger.Duration("refresh_interval", a.cfg.Refresh.Interval))

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server listening", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop loops first so nothing writes during teardown. A tick in progress
	// is allowed to finish within the deadline.
	for _, r := range a.runners.All() {
		if err := r.Stop(ctx); err != nil {
			a.log.Warn("loop stop error", applogger.Error(err))
		}
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("resource close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
