package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medledger/consent-ledger-api/internal/config"
	"github.com/medledger/consent-ledger-api/internal/database"
	"github.com/medledger/consent-ledger-api/internal/handlers"
	"github.com/medledger/consent-ledger-api/internal/middleware"
	"github.com/medledger/consent-ledger-api/internal/service"
)

// SetupRouter configures all API routes
func SetupRouter(
	cfg *config.Config,
	db *database.DB,
	requestService *service.AccessRequestService,
	approvalService *service.ApprovalService,
	releaseService *service.ReleaseService,
	relayService *service.GrantRelayService,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CorrelationIDMiddleware())
	if cfg.CORS.Enabled {
		router.Use(middleware.CORSMiddleware(cfg.CORS))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.HealthCheck(ctx); err != nil {
			c.JSON(503, gin.H{"status": "unhealthy", "database": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Create handlers
	accessRequestHandler := handlers.NewAccessRequestHandler(requestService, approvalService)
	releaseHandler := handlers.NewReleaseHandler(releaseService, relayService)

	// Access request lifecycle routes
	access := router.Group("/access")
	{
		access.POST("/request", accessRequestHandler.CreateRequest)
		access.GET("/pending", accessRequestHandler.ListPending)
		access.POST("/approve", accessRequestHandler.Approve)
		access.POST("/reject", accessRequestHandler.Reject)
		access.POST("/release", releaseHandler.Release)
		access.POST("/grant-file", releaseHandler.GrantFile)
		access.GET("/view-granted-file", releaseHandler.ViewGrantedFile)

		access.GET("/requests/:requestId", accessRequestHandler.GetRequest)
		access.DELETE("/requests/:requestId", accessRequestHandler.DeleteRequest)
	}

	return router
}
