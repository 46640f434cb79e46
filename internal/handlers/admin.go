package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"outreach-engine-go/internal/model"
)

// ListSuppressions returns the suppression list
func (h *Handlers) ListSuppressions(c *gin.Context) {
	entries, err := h.repo.ListSuppressions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch suppressions",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// AddSuppression adds an address to the suppression list
func (h *Handlers) AddSuppression(c *gin.Context) {
	var req AddSuppressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = model.SuppressionReasonManual
	}
	if err := h.repo.AddSuppression(req.Email, reason); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to add suppression",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	h.repo.LogAudit("suppression_added", "admin_api", "", map[string]interface{}{
		"email":  req.Email,
		"reason": reason,
	})

	c.JSON(http.StatusCreated, gin.H{"email": req.Email, "reason": reason})
}

// ListAudit returns recent audit entries, newest first
func (h *Handlers) ListAudit(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.repo.ListAuditEntries(c.Query("action"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch audit entries",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// RunSchedulerOnce evaluates all jobs immediately
func (h *Handlers) RunSchedulerOnce(c *gin.Context) {
	if h.loop == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "scheduler_unavailable",
			Message: "Scheduler is not running in this process",
			Code:    http.StatusServiceUnavailable,
		})
		return
	}

	enqueued, err := h.loop.RunOnce()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "scheduler_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, RunOnceResponse{Enqueued: enqueued})
}

// GetSchedulerStatus reports the poll loop state
func (h *Handlers) GetSchedulerStatus(c *gin.Context) {
	response := SchedulerStatusResponse{}
	if h.loop != nil {
		response.Running = h.loop.IsRunning()
		if last := h.loop.LastTick(); !last.IsZero() {
			response.LastTick = last.Format(time.RFC3339)
		}
	}
	c.JSON(http.StatusOK, response)
}
