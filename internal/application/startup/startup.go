// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/papapop/papapop-go/internal/application/container"
	"github.com/papapop/papapop-go/internal/infrastructure/email"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/database"
	"github.com/papapop/papapop-go/internal/presentation/http/server"
	"github.com/papapop/papapop-go/pkg/config"
)

// Initialize performs the complete server startup sequence: logging,
// database, schema, dependency container, background broadcaster, and the
// HTTP server with graceful shutdown.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()

	logger.Startup().Info("PapaPop server starting")

	// Step 1: Database connection and schema
	stepStart := time.Now()
	db, err := database.NewConnectionFromConfig(logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to ensure database schema: %w", err)
	}
	logger.LogStartupPhase("database", time.Since(stepStart), true, nil)

	// Step 2: Email service (optional; captures work without it)
	stepStart = time.Now()
	var emailService email.Service
	if config.ResendAPIKey != "" {
		emailService, err = email.NewService()
		if err != nil {
			return fmt.Errorf("failed to initialize email service: %w", err)
		}
		logger.LogStartupPhase("email", time.Since(stepStart), true, nil)
	} else {
		logger.Startup().Warn("RESEND_API_KEY not set, discount emails disabled")
	}

	// Step 3: Dependency injection container
	stepStart = time.Now()
	appContainer := container.NewContainer(logger, db, emailService)
	logger.LogStartupPhase("container", time.Since(stepStart), true, nil)

	// Step 4: Activity broadcaster
	go appContainer.Broadcaster.Run()
	logger.Startup().Info("Activity broadcaster started", "tick", config.ActivityTick)

	// Step 5: HTTP server
	stepStart = time.Now()
	httpServer := server.New(config.Port, appContainer)
	logger.LogStartupPhase("http", time.Since(stepStart), true, map[string]any{"port": config.Port})

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
