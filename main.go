package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/clients"
	intconfig "storefront/internal/config"
	router "storefront/internal/http"
	h "storefront/internal/http/handlers"
	"storefront/internal/http/middleware"
	"storefront/internal/pricing"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	utils.ConfigureLogger(env.LogLevel, env.LogFormat)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	baseCtx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := intconfig.ConnectDB(env.MySQL)
	if err != nil {
		logrus.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer intconfig.CloseDB()

	itemRepo := repositories.ItemRepository{DB: db}
	if err := itemRepo.EnsureTable(baseCtx); err != nil {
		logrus.Fatalf("Failed to prepare bookable_items: %v", err)
	}

	rdb, err := intconfig.ConnectRedis(baseCtx, env.Redis)
	if err != nil {
		logrus.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	var (
		store  repositories.AttemptStore
		locker repositories.AttemptLocker
	)
	switch env.Payment.AttemptStore {
	case "redis":
		rs := repositories.NewRedisAttemptStore(rdb, env.Payment.Freshness)
		store, locker = rs, rs
	default:
		bdb, err := intconfig.OpenBadger(env.Badger)
		if err != nil {
			logrus.Fatalf("Failed to open attempt store: %v", err)
		}
		defer bdb.Close()
		store = repositories.NewBadgerAttemptStore(bdb, env.Payment.Freshness)
	}
	logrus.Infof("Payment attempts stored in %s", env.Payment.AttemptStore)

	backend := clients.NewBackendClient(env.Backend.BaseURL, env.Backend.Timeout)
	backend.Header = func(ctx context.Context, req *http.Request) {
		if rid := middleware.RequestIDFromContext(ctx); rid != "" {
			req.Header.Set("X-Request-ID", rid)
		}
	}

	retry := services.NewRetryManager(env.Payment.PollMaxRetries, env.Payment.PollBaseDelay)
	registry := services.NewReconcilerRegistry(backend, store, services.ReconcilerOptions{
		Freshness:       env.Payment.Freshness,
		RequestTimeout:  env.Payment.RequestTimeout,
		RedirectDelay:   env.Payment.RedirectDelay,
		BookingViewPath: env.Payment.BookingViewPath,
	}, retry)
	registry.Locker = locker
	defer registry.Close()
	go registry.RunSweeper(baseCtx, env.Payment.SweepInterval)

	h.Configure(h.Deps{
		Items:    itemRepo,
		Cache:    repositories.NewRedisItemCache(rdb, env.Redis.ItemTTL),
		Resolver: pricing.Resolver{Weekend: pricing.ParseWeekendPolicy(env.Pricing.WeekendPolicy)},
		Bookings: backend,
		Orders:   backend,
		Registry: registry,
		Retry:    retry,
		Currency: env.Payment.Currency,
		BaseCtx:  baseCtx,
		Checks: map[string]func(context.Context) error{
			"mysql": intconfig.PingDB,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})

	r := router.NewRouter(env)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logrus.Infof("Server listening on http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server shutdown failed: %v", err)
		return
	}

	logrus.Info("Server stopped cleanly.")
}
