package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/petalworks/petalworks-backend/api/routes"
	"github.com/petalworks/petalworks-backend/internal/address"
	"github.com/petalworks/petalworks-backend/internal/catalog"
	"github.com/petalworks/petalworks-backend/internal/checkout"
	"github.com/petalworks/petalworks-backend/internal/notifications"
	"github.com/petalworks/petalworks-backend/internal/orders"
	"github.com/petalworks/petalworks-backend/internal/pricing"
	"github.com/petalworks/petalworks-backend/internal/stats"
	"github.com/petalworks/petalworks-backend/pkg/config"
	"github.com/petalworks/petalworks-backend/pkg/db"
	"github.com/petalworks/petalworks-backend/pkg/env"
	"github.com/petalworks/petalworks-backend/pkg/logger"
	"github.com/petalworks/petalworks-backend/pkg/mailer"
	"github.com/petalworks/petalworks-backend/pkg/metrics"
	"github.com/petalworks/petalworks-backend/pkg/migrate"
	"github.com/petalworks/petalworks-backend/pkg/outbox"
	"github.com/petalworks/petalworks-backend/pkg/pubsub"
	"github.com/petalworks/petalworks-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis client", err)
		}
	}()

	var pubsubPinger db.Pinger
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
		pubsubPinger = pubsubClient
	} else {
		logg.Warn(context.Background(), "GCP project not configured, pubsub disabled")
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	var mail mailer.Mailer
	if cfg.Mail.Enabled {
		mail, err = mailer.NewSMTP(cfg.Mail)
		if err != nil {
			logg.Error(context.Background(), "failed to configure smtp mailer", err)
			os.Exit(1)
		}
	} else {
		mail = mailer.NewLog(logg)
	}

	calculator, err := pricing.NewCalculator(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to build pricing calculator", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	addressRepo := address.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	statsRepo := stats.NewRepository(dbClient.DB())

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	addressService, err := address.NewService(addressRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build address service", err)
		os.Exit(1)
	}

	dispatcher, err := notifications.NewDispatcher(catalogRepo, notificationsRepo, mail, logg, pipelineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build notification dispatcher", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to build notifications service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, dispatcher, logg, pipelineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		ordersRepo,
		catalogRepo,
		addressService,
		addressRepo,
		calculator,
		dbClient,
		outboxService,
		dispatcher,
		logg,
		pipelineMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(statsRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to build stats service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   pubsubPinger,
		Registry: registry,

		Addresses:     addressService,
		Checkout:      checkoutService,
		Orders:        ordersService,
		Notifications: notificationsService,
		Stats:         statsService,
	})

	// Heroku style platforms inject PORT at runtime.
	port := env.Get("PORT", cfg.App.Port)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"port": port,
	})

	errs := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "error shutting down api server", err)
	}
	logg.Info(context.Background(), "api server shutting down gracefully")
}
