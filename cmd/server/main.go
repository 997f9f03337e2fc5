// Package main initializes and starts the userd HTTP server, setting up
// configuration, logging, the database connection, repositories, services,
// and handlers.
package main

import (
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/atarasenko/userd/internal/auth"
	"github.com/atarasenko/userd/internal/config"
	"github.com/atarasenko/userd/internal/db"
	"github.com/atarasenko/userd/internal/hash"
	"github.com/atarasenko/userd/internal/logger"
	"github.com/atarasenko/userd/internal/repository"
	"github.com/atarasenko/userd/internal/server/handler/http"
	"github.com/atarasenko/userd/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	buildVersion, buildDateStr := version, buildDate
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDateStr == "" {
		buildDateStr = "N/A"
	}
	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDateStr)

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Token issuer needs the signing secret up front.
	issuer, err := auth.NewIssuer([]byte(options.TokenSecret), options.TokenTTL)
	if err != nil {
		zapLogger.Fatal("cannot init token issuer", zap.Error(err))
	}
	if options.TokenTTL == 0 {
		zapLogger.Warn("TOKEN_TTL is 0: issued tokens never expire until the secret rotates")
	}

	// Initialize the repository and business-logic service.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	accountService := service.NewAccountService(userRepo, hash.Argon2{}, issuer, options.StoreTimeout)

	// Create HTTP handlers for the user and auth endpoints.
	userHandler := &http.UserHandler{Service: accountService, DefaultLimit: options.ListLimit}
	authHandler := &http.AuthHandler{Service: accountService}

	// Build the router with middleware and routes.
	router := http.NewRouter(userHandler, authHandler, issuer, options.AllowedOrigins, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
