/**
 * @description
 * This is the main entry point for the dispatch-service. It wires together
 * configuration, the database connection pool, the repository, the outbound
 * clients (mail, join links, events), the dispatch pipeline, the cron
 * scheduler, and the HTTP server, then runs until terminated.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/GOALETE/dispatch-service/internal/api"
	"github.com/GOALETE/dispatch-service/internal/app"
	"github.com/GOALETE/dispatch-service/internal/civil"
	"github.com/GOALETE/dispatch-service/internal/config"
	"github.com/GOALETE/dispatch-service/internal/domain"
	"github.com/GOALETE/dispatch-service/internal/store"
	"github.com/GOALETE/dispatch-service/pkg/mailclient"
	"github.com/GOALETE/dispatch-service/pkg/meetlink"
	"github.com/GOALETE/dispatch-service/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Establish database connection with connection pool configuration.
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = 50
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	// Use the simple protocol so the service works behind PgBouncer
	// transaction pooling.
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Event publishing is optional; the service runs fine without a broker.
	var publisher app.EventPublisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = producer
		logger.Info("rabbitmq producer connected")
	}

	loc := civil.FixedZone(cfg.TZOffsetMinutes)
	repository := store.NewRepository(dbpool)
	mail := mailclient.NewClient(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFromAddress)
	links := meetlink.NewClient(cfg.MeetLinkAPIURL, cfg.MeetLinkAPIKey, cfg.MeetingStaticJoinLink)

	accepted := domain.NewPaymentStateSet(cfg.PaymentStates(), cfg.PaymentAllowEmptyState)
	eligibility := app.NewEligibilityChecker(repository, time.Now, loc)
	resolver := app.NewMeetingResolver(repository, links, app.MeetingDefaults{
		Platform:        domain.MeetingPlatform(cfg.MeetingPlatform),
		StartTime:       cfg.MeetingStartTime,
		DurationMinutes: cfg.MeetingDurationMinutes,
		Title:           cfg.MeetingTitle,
		Description:     cfg.MeetingDescription,
	}, logger)
	selector := app.NewSelector(repository, accepted)
	dispatcher := app.NewDispatcher(mail, cfg.DispatchConcurrency,
		time.Duration(cfg.DispatchSendTimeoutSeconds)*time.Second, logger)
	service := app.NewService(eligibility, resolver, selector, dispatcher, repository, time.Now, loc, logger)

	scheduler := app.NewScheduler(service, publisher, logger, *cfg)
	scheduler.Start()
	logger.Info("scheduler started", "schedule", cfg.DispatchJobSchedule)

	handler := api.NewHandler(service, scheduler, loc)
	router := api.NewRouter(handler, cfg.AdminJWTSecret, cfg.InternalAPIKey)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
