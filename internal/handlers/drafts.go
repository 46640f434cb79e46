package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"outreach-engine-go/internal/lifecycle"
	"outreach-engine-go/internal/model"
	"outreach-engine-go/internal/outbox"
)

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Draft ID must be a positive integer",
			Code:    http.StatusBadRequest,
		})
		return 0, false
	}
	return uint(id), true
}

// ListDrafts returns outbox drafts, optionally filtered by status
func (h *Handlers) ListDrafts(c *gin.Context) {
	drafts, err := h.repo.ListDrafts(c.Query("status"), 200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch drafts",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, drafts)
}

// GetDraft returns a single draft by ID
func (h *Handlers) GetDraft(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	draft, err := h.repo.GetDraft(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch draft",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	if draft == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Draft not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	c.JSON(http.StatusOK, draft)
}

// ApproveDraft records a human approval on a draft
func (h *Handlers) ApproveDraft(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ApproveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	draft, err := h.repo.GetDraft(id)
	if err != nil || draft == nil {
		status := http.StatusNotFound
		if err != nil {
			status = http.StatusInternalServerError
		}
		c.JSON(status, ErrorResponse{
			Error:   "not_found",
			Message: "Draft not found",
			Code:    status,
		})
		return
	}

	if err := h.repo.ApproveDraft(draft, req.ApprovedBy); err != nil {
		var invalid *lifecycle.InvalidTransitionError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "invalid_transition",
				Message: err.Error(),
				Code:    http.StatusConflict,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to approve draft",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	h.repo.LogAudit("draft_approved", "admin_api", "", map[string]interface{}{
		"draft_id":    draft.ID,
		"approved_by": req.ApprovedBy,
	})

	c.JSON(http.StatusOK, draft)
}

// RegenerateDraft discards a non-terminal draft and creates a
// replacement for the same lead
func (h *Handlers) RegenerateDraft(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req RegenerateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	old, err := h.repo.GetDraft(id)
	if err != nil || old == nil {
		status := http.StatusNotFound
		if err != nil {
			status = http.StatusInternalServerError
		}
		c.JSON(status, ErrorResponse{
			Error:   "not_found",
			Message: "Draft not found",
			Code:    status,
		})
		return
	}

	replacement := &model.OutboxDraft{
		ToEmail:                  req.ToEmail,
		Subject:                  req.Subject,
		BodyText:                 req.BodyText,
		PersonalizationFact:      req.PersonalizationFact,
		PersonalizationSourceURL: req.PersonalizationSourceURL,
		Status:                   model.DraftStatusReadyForReview,
	}
	if replacement.ToEmail == "" {
		replacement.ToEmail = old.ToEmail
	}

	if err := h.repo.RegenerateDraft(old, replacement); err != nil {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "regeneration_rejected",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
		return
	}

	h.repo.LogAudit("draft_regenerated", "admin_api", "", map[string]interface{}{
		"old_draft_id": old.ID,
		"new_draft_id": replacement.ID,
		"lead_id":      replacement.LeadID,
	})

	c.JSON(http.StatusCreated, replacement)
}

// SendDraft triggers an immediate guarded send of one draft
func (h *Handlers) SendDraft(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.sender.SendDraft(c.Request.Context(), id); err != nil {
		var blocked *outbox.BlockedError
		if errors.As(err, &blocked) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   blocked.Reason,
				Message: "Send blocked by guardrail",
				Code:    http.StatusUnprocessableEntity,
			})
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "send_failed",
			Message: err.Error(),
			Code:    http.StatusBadGateway,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
