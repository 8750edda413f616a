// Package main initializes and starts the oprosy API server, setting up
// configuration, logging, the database connection, the rate-limit store and
// the Telegram WebApp authentication boundary.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Flaymie/oprosy/internal/config"
	"github.com/Flaymie/oprosy/internal/db"
	"github.com/Flaymie/oprosy/internal/logger"
	"github.com/Flaymie/oprosy/internal/ratelimit"
	"github.com/Flaymie/oprosy/internal/repository"
	"github.com/Flaymie/oprosy/internal/server/handler/http"
	"github.com/Flaymie/oprosy/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if options.BotToken == "" {
		zapLogger.Fatal("bot token is required (-t flag or BOT_TOKEN)")
	}

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Initialize the account repository and authentication service.
	accountRepo := repository.NewPostgresAccountRepository(postgresDB)
	authService := service.NewAuthService(accountRepo, options.BotToken, options.AuthMaxAge)

	period := time.Duration(options.RateLimitPeriod) * time.Second

	// Pick the rate-limit store: in-process by default, Redis-backed when
	// the window must be shared across instances.
	var store ratelimit.Store
	if options.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: options.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			zapLogger.Fatal("cannot reach redis", zap.Error(err))
		}
		store = ratelimit.NewRedisStore(client, options.RateLimitRequests, period, zapLogger)
		zapLogger.Info("using redis rate-limit store", zap.String("addr", options.RedisAddr))
	} else {
		memStore := ratelimit.NewMemoryStore(options.RateLimitRequests, period)
		memStore.StartJanitor(context.Background(),
			2*time.Minute,  // sweep interval
			15*time.Minute, // idle TTL per client key
		)
		store = memStore
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(http.RouterConfig{
		AuthHandler:       &http.AuthHandler{AuthService: authService},
		Authenticator:     authService,
		RateLimitStore:    store,
		ClientIDHeader:    options.ClientIDHeader,
		RateLimitRequests: options.RateLimitRequests,
		RateLimitPeriod:   period,
		Logger:            zapLogger,
	})

	server := &nethttp.Server{
		Addr:    options.Address,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
