package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/openshelf/library-server-go/idp"
	"github.com/openshelf/library-server-go/idp/idpfactory"
	"github.com/openshelf/library-server-go/monitoring"
	v1 "github.com/openshelf/library-server-go/v1"
	v1handlers "github.com/openshelf/library-server-go/v1/handlers"
	v1middleware "github.com/openshelf/library-server-go/v1/middleware"
	v1services "github.com/openshelf/library-server-go/v1/services"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	slog.Info("Starting library server initialization")

	// Metrics pipeline
	shutdownTelemetry, err := monitoring.Setup(context.Background(), monitoring.Config{
		ServiceName: "library-server",
	})
	if err != nil {
		slog.Error("Failed to initialize telemetry", "error", err)
		os.Exit(1)
	}

	// Database
	dbConfig := v1.NewDatabaseConfig()
	gormDB, err := v1.ConnectGormDB(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Identity provider client for staff provisioning
	idpProvider, err := idpfactory.NewIdpAPIProvider(idpfactory.FactoryConfig{
		ProviderType: idp.ProviderAsgardeo,
		BaseURL:      os.Getenv("IDP_BASE_URL"),
		ClientID:     os.Getenv("IDP_CLIENT_ID"),
		ClientSecret: os.Getenv("IDP_CLIENT_SECRET"),
		Scopes:       []string{"internal_user_mgt_create", "internal_user_mgt_update", "internal_user_mgt_delete", "internal_user_mgt_view", "internal_group_mgt_update", "internal_group_mgt_view"},
	})
	if err != nil {
		slog.Error("Failed to initialize identity provider client", "error", err)
		os.Exit(1)
	}

	// Circulation config from environment
	loanPeriodDays := getEnvInt("LOAN_PERIOD_DAYS", 0)
	fineRatePerDay := int64(getEnvInt("FINE_RATE_PER_DAY", 0))
	circulationService := v1services.NewCirculationServiceWithConfig(gormDB, loanPeriodDays, fineRatePerDay)

	// Overdue sweeper
	sweeper := v1services.NewOverdueSweeper(gormDB, circulationService, os.Getenv("OVERDUE_SWEEP_SCHEDULE"))
	if err := sweeper.Start(); err != nil {
		slog.Error("Failed to start overdue sweeper", "error", err)
		os.Exit(1)
	}

	// V1 handlers
	v1Handler := v1handlers.NewV1HandlerWithServices(
		v1services.NewBookService(gormDB),
		v1services.NewMemberService(gormDB),
		circulationService,
		v1services.NewStaffService(gormDB, idpProvider),
	)

	// Setup routes
	mux := http.NewServeMux()
	v1Handler.SetupV1Routes(mux)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":"library-server","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
	})

	// Debug endpoint
	mux.HandleFunc("/debug", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"debug":"enabled","service":"library-server","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
	})

	// Prometheus metrics endpoint
	mux.Handle("/metrics", monitoring.Handler())

	// Middleware chain, outermost first: CORS, security headers, rate
	// limiting, request metrics, JWT auth, endpoint authorization
	jwtMiddleware := v1middleware.NewJWTAuthMiddleware(v1middleware.JWTAuthConfig{
		JWKSURL:          os.Getenv("JWT_JWKS_URL"),
		ExpectedIssuer:   os.Getenv("JWT_ISSUER"),
		ExpectedAudience: os.Getenv("JWT_AUDIENCE"),
	})
	authzMiddleware := v1middleware.NewAuthorizationMiddleware()

	var handler http.Handler = mux
	handler = authzMiddleware.AuthorizeRequest(handler)
	handler = jwtMiddleware.AuthenticateJWT(handler)
	handler = monitoring.HTTPMetricsMiddleware(handler)
	handler = v1middleware.RateLimitMiddleware(getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100), time.Minute)(handler)
	handler = v1middleware.SecurityHeaders(handler)
	handler = v1middleware.NewCORSMiddleware()(handler)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := ":" + port
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Library server starting", "port", port, "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start library server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down library server...")

	sweeper.Stop()

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := shutdownTelemetry(ctx); err != nil {
		slog.Error("Telemetry shutdown failed", "error", err)
	}

	slog.Info("Library server exited")
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
