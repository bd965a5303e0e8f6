package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Chqrety/reservation/internal/backend"
	"github.com/Chqrety/reservation/internal/config"
	"github.com/Chqrety/reservation/internal/events"
	"github.com/Chqrety/reservation/internal/logging"
	"github.com/Chqrety/reservation/internal/metrics"
	"github.com/Chqrety/reservation/internal/notify"
	"github.com/Chqrety/reservation/internal/page"
	"github.com/Chqrety/reservation/internal/session"
	"github.com/Chqrety/reservation/internal/web"
	"github.com/Chqrety/reservation/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const janitorInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, janitor, err := initSessionStore(cfg, redisClient, &logger)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	api := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, &logger)
	if redisClient != nil && cfg.Backend.CacheTTL > 0 {
		api.UseRedisCache(redisClient, cfg.Backend.CacheTTL)
		logger.Info().Dur("ttl", cfg.Backend.CacheTTL).Msg("backend cache enabled")
	}

	bus := events.NewBus()
	subscribeAudit(bus, &logger)
	if err := startNotifier(ctx, cfg, bus, redisClient, &logger); err != nil {
		return err
	}

	registry := page.NewRegistry()
	go runJanitor(ctx, cfg.Session.TTL, registry, janitor, &logger)

	srv, err := web.NewServer(web.Deps{
		Config:   *cfg,
		Backend:  api,
		Sessions: session.NewManager(store),
		Registry: registry,
		Bus:      bus,
		Logger:   &logger,
	})
	if err != nil {
		return fmt.Errorf("create web server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	logger.Info().Int("port", cfg.HTTP.Port).Str("backend", cfg.Backend.BaseURL).Msg("web front-end started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("web server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info().Msg("web front-end stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "web-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := session.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := session.Ping(pingCtx, client); err != nil {
		if cfg.Session.Store == config.SessionStoreRedis {
			// The failover store takes over until Redis comes back.
			logger.Warn().Err(err).Msg("redis unreachable, sessions start on the memory fallback")
			return client
		}
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// sweeper is the periodic cleanup of a session store, nil when the store
// expires entries on its own.
type sweeper func(ctx context.Context) (int64, error)

func initSessionStore(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (session.Store, sweeper, error) {
	memory := session.NewMemoryStore(cfg.Session.TTL)
	sweepMemory := func(context.Context) (int64, error) { return int64(memory.Sweep()), nil }

	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("session store redis: no redis client")
		}
		storeLogger := logging.Component(logger, "session")
		store := session.NewFailoverStore(session.NewRedisStore(redisClient, cfg.Session.TTL), memory, &storeLogger)
		logger.Info().Msg("sessions stored in redis")
		return store, sweepMemory, nil
	case config.SessionStoreSQLite:
		store, err := session.NewSQLiteStore(cfg.Session.SQLitePath, cfg.Session.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("open session database: %w", err)
		}
		logger.Info().Str("path", cfg.Session.SQLitePath).Msg("sessions stored in sqlite")
		return store, store.Purge, nil
	default:
		logger.Info().Msg("sessions stored in memory")
		return memory, sweepMemory, nil
	}
}

func subscribeAudit(bus *events.Bus, logger *zerolog.Logger) {
	audit := logging.Component(logger, "audit")
	for _, eventType := range []string{
		events.EventReservationCreated,
		events.EventReservationDeleted,
		events.EventLocationDeleted,
		events.EventCategoryDeleted,
	} {
		bus.Subscribe(eventType, func(event *events.Event) error {
			audit.Info().
				Str("event", event.Type).
				RawJSON("payload", event.Payload).
				Time("at", event.CreatedAt).
				Msg("admin event")
			return nil
		})
	}
}

func startNotifier(ctx context.Context, cfg *config.Config, bus *events.Bus, redisClient *redis.Client, logger *zerolog.Logger) error {
	if cfg.Telegram.BotToken == "" {
		logger.Info().Msg("telegram notifications disabled")
		return nil
	}

	tg, err := notify.NewTelegram(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("init telegram notifier: %w", err)
	}

	w := worker.NewNotifyWorker(tg, redisClient, worker.RetryPolicy{MaxRetries: cfg.Telegram.MaxRetries}, logger)
	bus.Subscribe(events.EventReservationCreated, w.HandleEvent)
	go w.Start(ctx)

	logger.Info().Int("chats", len(cfg.Telegram.NotifyChat)).Msg("telegram notifications enabled")
	return nil
}

// runJanitor drops expired sessions and idle page controllers.
func runJanitor(ctx context.Context, ttl time.Duration, registry *page.Registry, sweep sweeper, logger *zerolog.Logger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			views := registry.Sweep(ttl)
			var sessions int64
			if sweep != nil {
				n, err := sweep(ctx)
				if err != nil {
					logger.Warn().Err(err).Msg("sweep sessions")
				}
				sessions = n
			}
			if views > 0 || sessions > 0 {
				logger.Debug().Int("views", views).Int64("sessions", sessions).Msg("janitor sweep")
			}
		}
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
