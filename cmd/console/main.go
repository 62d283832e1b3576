package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"adminconsole/client"
	"adminconsole/internal/api"
	"adminconsole/internal/config"
	"adminconsole/internal/guard"
	"adminconsole/internal/metrics"
	"adminconsole/internal/service"
	"adminconsole/internal/session"
	"adminconsole/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logger.InitLogger(cfg.Server.Environment)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("console startup failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// With a redis session store the sign-in limiter shares the same client.
	var rdb *redis.Client
	if cfg.Session.Store == "redis" {
		var err error
		rdb, err = initRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	observer := metrics.NewPrometheusObserver()

	var store session.TokenStore = session.NewMemoryStore()
	if rdb != nil {
		store = session.NewRedisStore(rdb, cfg.Session.Name, cfg.Session.TTL)
	}
	sess := session.New(ctx, store, observer)

	backend := client.New(cfg.Backend.BaseURL, sess, client.WithTimeout(cfg.Backend.Timeout))

	g := guard.New(guard.Config{
		PublicRoutes:  cfg.Guard.PublicRoutes,
		AdminPrefixes: cfg.Guard.AdminPrefixes,
		AdminRole:     cfg.Guard.AdminRole,
	}, sess, backend, observer)

	authSvc := service.NewAuthService(backend, sess)
	catalog := service.NewCatalog(backend)
	settings := service.NewSettingsStore(cfg.Settings.LowStockThreshold)
	hub := service.NewHub(observer, cfg.Stream.HeartbeatInterval, cfg.Stream.HistorySize)
	sess.OnEvent(hub.Publish)

	go func() {
		logger.Info("starting session event hub")
		hub.Run(ctx)
	}()
	if cfg.Session.WatchInterval > 0 {
		watcher := service.NewExpiryWatcher(sess, cfg.Session.WatchInterval)
		go func() {
			logger.Info("starting session expiry watcher", zap.Duration("interval", cfg.Session.WatchInterval))
			watcher.Run(ctx)
		}()
	}

	collections := catalog.Collections()
	resources := make([]string, 0, len(collections))
	for path := range collections {
		resources = append(resources, path)
	}

	health := func(ctx context.Context) error {
		if rdb == nil {
			return nil
		}
		return rdb.Ping(ctx).Err()
	}

	r := api.RegisterRoutes(api.Handlers{
		Auth:        api.NewAuthHandler(authSvc, sess, cfg.Guard.AdminRole, cfg.Session.SecureCookies),
		Pages:       api.NewPageHandler(authSvc, settings, resources, health),
		Stream:      api.NewStreamHandler(hub, sess),
		Collections: collections,
	}, api.RouterOptions{
		Guard:         g,
		AdminRole:     cfg.Guard.AdminRole,
		SecureCookies: cfg.Session.SecureCookies,
		Redis:         rdb,
		SignInRPS:     cfg.RateLimit.SignInPerSecond,
		CorsOrigins:   cfg.Cors.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("console starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("env", cfg.Server.Environment),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.String("session_store", cfg.Session.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down console...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stops the hub, which closes every open event stream.
	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("console exited properly")
	return nil
}

func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}
