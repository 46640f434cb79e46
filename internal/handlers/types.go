package handlers

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Scheduler string    `json:"scheduler,omitempty"`
	LastTick  string    `json:"last_tick,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ApproveDraftRequest carries the approver identity for a human
// approval.
type ApproveDraftRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required"`
}

// RegenerateDraftRequest carries the replacement content for a
// discarded draft.
type RegenerateDraftRequest struct {
	ToEmail                  string `json:"to_email"`
	Subject                  string `json:"subject" binding:"required"`
	BodyText                 string `json:"body_text" binding:"required"`
	PersonalizationFact      string `json:"personalization_fact"`
	PersonalizationSourceURL string `json:"personalization_source_url"`
}

// AddSuppressionRequest adds one address to the suppression list.
type AddSuppressionRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Reason string `json:"reason"`
}

// SchedulerStatusResponse reports the poll loop state.
type SchedulerStatusResponse struct {
	Running  bool   `json:"running"`
	LastTick string `json:"last_tick,omitempty"`
}

// RunOnceResponse reports the outcome of a manual scheduler tick.
type RunOnceResponse struct {
	Enqueued int `json:"enqueued"`
}
