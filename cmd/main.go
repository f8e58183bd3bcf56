/**
 * @description
 * This is the main entry point for the USSD gateway. Its responsibility is to
 * initialize all necessary components and start the HTTP server that receives
 * aggregator callbacks.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Establishes and manages a connection pool to the PostgreSQL database.
 * - Initializes clients for external services (SafeHaven API, Redis, RabbitMQ).
 * - Wires up the flow engine with its repositories and collaborators.
 * - Starts the stale-session sweeper and implements graceful shutdown.
 */
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/iyapays/ussd-gateway/internal/api"
	"github.com/iyapays/ussd-gateway/internal/app"
	"github.com/iyapays/ussd-gateway/internal/config"
	"github.com/iyapays/ussd-gateway/internal/engine"
	"github.com/iyapays/ussd-gateway/internal/store"
	"github.com/iyapays/ussd-gateway/pkg/rabbitmq"
	"github.com/iyapays/ussd-gateway/pkg/redislock"
	"github.com/iyapays/ussd-gateway/pkg/safehaven"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}
	dbConfig.MaxConns = 50
	dbConfig.MinConns = 5
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Set up repositories.
	userRepo := store.NewPostgresUserRepository(dbpool)
	voucherRepo := store.NewPostgresVoucherRepository(dbpool)
	enrollmentRepo := store.NewPostgresEnrollmentRepository(dbpool)
	savingsRepo := store.NewPostgresSavingsPlanRepository(dbpool)

	// Provider client.
	providerClient := safehaven.NewClient(
		cfg.SafeHavenBaseURL,
		cfg.SafeHavenAccessToken,
		cfg.SafeHavenClientID,
		cfg.SettlementAccount,
	)

	// Event producer, with a fallback so a broker outage does not block USSD traffic.
	var publisher rabbitmq.Publisher
	if producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
		log.Printf("RabbitMQ unavailable, using fallback publisher: %v", err)
		publisher = &rabbitmq.EventProducerFallback{}
	} else {
		publisher = producer
	}
	defer publisher.Close()

	// Per-phone request lock.
	var locker api.Locker
	if cfg.RedisURL != "" {
		redisOpts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Unable to parse redis URL: %v\n", err)
		}
		locker = redislock.New(goredis.NewClient(redisOpts), cfg.LockTTL())
	} else {
		log.Println("REDIS_URL not set, per-phone locking disabled")
	}

	// The flow engine.
	eng := engine.New(
		userRepo, voucherRepo, enrollmentRepo, savingsRepo,
		providerClient, publisher, logger,
		engine.Config{
			SessionTimeout:          cfg.SessionTimeout(),
			TransferMinAmount:       cfg.TransferMinAmount,
			TransferMaxAmount:       cfg.TransferMaxAmount,
			AirtimeMinAmount:        cfg.AirtimeMinAmount,
			AirtimeMaxAmount:        cfg.AirtimeMaxAmount,
			SavingsMinAmount:        cfg.SavingsMinAmount,
			SettlementBankCode:      cfg.SettlementBankCode,
			MasterSettlementAccount: cfg.SettlementAccount,
			EnrollableRegion:        cfg.EnrollableRegion,
		},
	)

	// Start the stale-session sweeper.
	sweeper := app.NewSweeper(userRepo, logger, cfg.SweeperSchedule, cfg.SessionTimeout())
	sweeper.Start()

	// Setup and start HTTP server.
	ussdHandler := api.NewUSSDHandler(eng, locker, logger)
	router := api.NewRouter(ussdHandler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	log.Println("USSD gateway is running.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down ussd-gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	<-sweeper.Stop().Done()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
