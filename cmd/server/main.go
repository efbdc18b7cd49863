package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medledger/consent-ledger-api/internal/config"
	"github.com/medledger/consent-ledger-api/internal/crypto"
	"github.com/medledger/consent-ledger-api/internal/dao"
	"github.com/medledger/consent-ledger-api/internal/database"
	"github.com/medledger/consent-ledger-api/internal/ledger/audit"
	"github.com/medledger/consent-ledger-api/internal/ledger/proof"
	"github.com/medledger/consent-ledger-api/internal/router"
	"github.com/medledger/consent-ledger-api/internal/service"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// Set Gin to release mode by default (can be overridden by GIN_MODE env var)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	logger.WithFields(logrus.Fields{
		"version":    version,
		"build_date": buildDate,
	}).Info("Starting Consent Ledger API Server...")

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level from config
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	logger.WithFields(logrus.Fields{
		"config_path": configPath,
		"log_level":   logger.GetLevel().String(),
	}).Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.Initialize(&cfg.Database.Consent, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	// Verify database connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		logger.WithError(err).Fatal("Database health check failed")
	}

	logger.Info("Database connection established successfully")

	// Initialize DAOs
	requestDAO := dao.NewAccessRequestDAO(db)
	payloadDAO := dao.NewGrantedPayloadDAO(db)

	// Initialize ledger providers
	proofProvider, err := proof.NewProvider(&cfg.Ledger.Proof, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize proof provider")
	}
	auditProvider, err := audit.NewProvider(&cfg.Ledger.Audit, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize audit provider")
	}

	logger.WithFields(logrus.Fields{
		"proof_mode": cfg.Ledger.Proof.Mode,
		"audit_mode": cfg.Ledger.Audit.Mode,
	}).Info("Ledger providers initialized")

	// Server fallback key for sealing relayed payloads at rest
	sealKey, err := crypto.FallbackKey(&cfg.Crypto)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load fallback envelope key")
	}

	// Initialize services
	requestService := service.NewAccessRequestService(requestDAO, payloadDAO, db, logger)
	approvalService := service.NewApprovalService(requestDAO, proofProvider, auditProvider, &cfg.Ledger, logger)
	releaseService := service.NewReleaseService(requestDAO, proofProvider, auditProvider, &cfg.Ledger, logger)
	relayService := service.NewGrantRelayService(requestDAO, payloadDAO, sealKey, logger)

	logger.Info("Services initialized successfully")

	// Setup router
	ginRouter := router.SetupRouter(cfg, db, requestService, approvalService, releaseService, relayService)

	// Configure HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Hostname, cfg.Server.Port)
	server := &http.Server{
		Addr:           serverAddr,
		Handler:        ginRouter,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"hostname": cfg.Server.Hostname,
			"port":     cfg.Server.Port,
			"addr":     serverAddr,
		}).Info("Starting HTTP server...")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited gracefully")
}
