package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridehail/internal/app"
	"ridehail/internal/auth"
	"ridehail/internal/config"
	"ridehail/internal/events"
	"ridehail/internal/handler"
	"ridehail/internal/middleware"
	"ridehail/internal/qr"
	internalRedis "ridehail/internal/redis"
	"ridehail/internal/repository/postgres"
	"ridehail/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	nrApp := app.NewNewRelicApp(cfg.NewRelic)
	if nrApp != nil {
		defer nrApp.Shutdown(5 * time.Second)
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Event sink. Publication is advisory, so a broker outage only disables it.
	publisher, err := app.NewEventPublisher(cfg.Events)
	if err != nil {
		log.Printf("[EVENTS] %v; continuing with publishing disabled", err)
		publisher = events.NewDisabledPublisher()
	}
	defer publisher.Close()

	// Wire dependencies.
	server := wireServer(db, redisClient, publisher, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, sink events.Sink, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient, cfg.Cache.JourneyTTL)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	journeyRepo := postgres.NewJourneyRepository(db)

	// Initialize services.
	tokens := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	userService := service.NewUserService(userRepo, tokens)
	driverService := service.NewDriverService(driverRepo, userRepo, locationStore, sink)
	journeyService := service.NewJourneyService(
		journeyRepo, driverRepo, userRepo, sink,
		service.NewSimulatedGateway(0),
		qr.NewRenderer(256),
	).WithCache(cacheStore).WithPaymentLocks(lockStore)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		UserHandler:    handler.NewUserHandler(userService),
		JourneyHandler: handler.NewJourneyHandler(journeyService),
		DriverHandler:  handler.NewDriverHandler(driverService),
		Tokens:         tokens,
		Idempotency:    middleware.NewRedisIdempotencyStore(redisClient),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
