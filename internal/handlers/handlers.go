// Package handlers exposes the administrative HTTP API: draft review
// and approval, suppression management, audit inspection and scheduler
// control.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"outreach-engine-go/internal/outbox"
	"outreach-engine-go/internal/repository"
	"outreach-engine-go/internal/scheduler"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db     *gorm.DB
	repo   *repository.Repository
	sender *outbox.Sender
	loop   *scheduler.Loop
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, repo *repository.Repository, sender *outbox.Sender, loop *scheduler.Loop) *Handlers {
	return &Handlers{
		db:     db,
		repo:   repo,
		sender: sender,
		loop:   loop,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	// Health check
	router.GET("/healthz", h.HealthCheck)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		// Outbox drafts
		api.GET("/drafts", h.ListDrafts)
		api.GET("/drafts/:id", h.GetDraft)
		api.POST("/drafts/:id/approve", h.ApproveDraft)
		api.POST("/drafts/:id/regenerate", h.RegenerateDraft)
		api.POST("/drafts/:id/send", h.SendDraft)

		// Suppression list
		api.GET("/suppressions", h.ListSuppressions)
		api.POST("/suppressions", h.AddSuppression)

		// Audit trail
		api.GET("/audit", h.ListAudit)

		// Scheduler control
		api.POST("/scheduler/run-once", h.RunSchedulerOnce)
		api.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
	}

	// Check database connection
	if err := h.db.Raw("SELECT 1").Error; err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.loop != nil && h.loop.IsRunning() {
		response.Scheduler = "running"
		if last := h.loop.LastTick(); !last.IsZero() {
			response.LastTick = last.Format(time.RFC3339)
		}
	} else {
		response.Scheduler = "stopped"
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
