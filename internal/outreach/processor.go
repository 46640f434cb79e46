// Package outreach runs the queued-outreach send stage: every item
// passes the full guardrail chain before a message may leave.
package outreach

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/compliance"
	"outreach-engine-go/internal/dispatch"
	"outreach-engine-go/internal/mailer"
	"outreach-engine-go/internal/ratelimit"
)

// Item statuses.
const (
	StatusSent    = "sent"
	StatusBlocked = "blocked"
	StatusFailed  = "failed"
)

// Machine-readable outcome reasons for a send attempt. Compliance
// blocks carry the evaluator's own sub-reason (missing_region or
// opt_in_required).
const (
	ReasonMissingEmail       = "missing_email"
	ReasonSuppressed         = "suppressed"
	ReasonRateLimited        = "rate_limited"
	ReasonPreflightFailed    = "preflight_failed"
	ReasonSendRetryExhausted = "send_retry_exhausted"
	ReasonSendError          = "send_error"
	ReasonSendingDisabled    = "sending_disabled"
)

// Item is one queued outreach message awaiting dispatch.
type Item struct {
	OutreachID uint
	ToEmail    string
	Subject    string
	Body       string
	Region     *string
	IsOptIn    bool
}

// Result is the per-item outcome. One result is produced for every
// item; an individual failure never aborts the batch.
type Result struct {
	OutreachID uint
	Status     string
	SentAt     *time.Time
	Reason     string
}

// SuppressionList checks whether an address must never be mailed.
type SuppressionList interface {
	IsSuppressed(email string) (bool, error)
}

// AuditLog records guardrail evaluations.
type AuditLog interface {
	LogAudit(action, source, legalBasis string, details map[string]interface{}) error
}

// Processor composes the per-item guardrail chain for the outreach
// stage.
type Processor struct {
	sender      mailer.Sender
	suppression SuppressionList
	limiter     *ratelimit.Limiter
	evaluator   *compliance.Evaluator
	audit       AuditLog
	from        string
	fromName    string
	retry       dispatch.Policy
}

// NewProcessor creates an outreach batch processor.
func NewProcessor(sender mailer.Sender, suppression SuppressionList, limiter *ratelimit.Limiter,
	evaluator *compliance.Evaluator, audit AuditLog, from, fromName string) *Processor {
	return &Processor{
		sender:      sender,
		suppression: suppression,
		limiter:     limiter,
		evaluator:   evaluator,
		audit:       audit,
		from:        from,
		fromName:    fromName,
		retry:       dispatch.DefaultPolicy,
	}
}

// SetRetryPolicy overrides the dispatch retry schedule.
func (p *Processor) SetRetryPolicy(policy dispatch.Policy) {
	p.retry = policy
}

// Domain extracts the lowercased recipient domain, or "" when absent.
func Domain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 && i+1 < len(email) {
		return strings.ToLower(email[i+1:])
	}
	return ""
}

// Process applies the guardrail chain to every item in order:
// missing-recipient, compliance, suppression, rate limit, dispatch with
// retry. Every compliance evaluation is audited regardless of outcome.
func (p *Processor) Process(ctx context.Context, items []Item) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		results = append(results, p.processItem(ctx, item))
	}
	return results
}

func (p *Processor) processItem(ctx context.Context, item Item) Result {
	if item.ToEmail == "" {
		return Result{OutreachID: item.OutreachID, Status: StatusFailed, Reason: ReasonMissingEmail}
	}

	decision := p.evaluator.Evaluate(item.Region, item.IsOptIn)
	p.auditCompliance(item, decision)
	if !decision.Allowed {
		return Result{OutreachID: item.OutreachID, Status: StatusBlocked, Reason: decision.Reason}
	}

	suppressed, err := p.suppression.IsSuppressed(item.ToEmail)
	if err != nil {
		logrus.Errorf("Suppression check failed for outreach %d: %v", item.OutreachID, err)
		return Result{OutreachID: item.OutreachID, Status: StatusFailed, Reason: ReasonSendError}
	}
	if suppressed {
		return Result{OutreachID: item.OutreachID, Status: StatusBlocked, Reason: ReasonSuppressed}
	}

	now := time.Now().UTC()
	domain := Domain(item.ToEmail)
	reserved, err := p.limiter.Reserve(now, domain)
	if err != nil {
		logrus.Errorf("Rate reserve failed for outreach %d: %v", item.OutreachID, err)
		return Result{OutreachID: item.OutreachID, Status: StatusFailed, Reason: ReasonSendError}
	}
	if !reserved {
		return Result{OutreachID: item.OutreachID, Status: StatusBlocked, Reason: ReasonRateLimited}
	}

	msg := mailer.Message{
		To:       item.ToEmail,
		Subject:  item.Subject,
		Body:     item.Body,
		From:     p.from,
		FromName: p.fromName,
	}
	if _, err := dispatch.SendWithPolicy(ctx, p.retry, p.sender, msg); err != nil {
		if releaseErr := p.limiter.Release(now, domain); releaseErr != nil {
			logrus.Errorf("Rate release failed for outreach %d: %v", item.OutreachID, releaseErr)
		}
		reason := ReasonSendError
		if errors.Is(err, dispatch.ErrRetryExhausted) {
			reason = ReasonSendRetryExhausted
		}
		logrus.Warnf("Outreach %d send failed: %v", item.OutreachID, err)
		return Result{OutreachID: item.OutreachID, Status: StatusFailed, Reason: reason}
	}

	sentAt := now
	return Result{OutreachID: item.OutreachID, Status: StatusSent, SentAt: &sentAt}
}

func (p *Processor) auditCompliance(item Item, decision compliance.Decision) {
	details := map[string]interface{}{
		"outreach_id": item.OutreachID,
		"to_email":    item.ToEmail,
		"is_opt_in":   item.IsOptIn,
		"allowed":     decision.Allowed,
		"reason":      decision.Reason,
	}
	if item.Region != nil {
		details["region"] = *item.Region
	}
	if err := p.audit.LogAudit("compliance_evaluation", "outreach_processor", "", details); err != nil {
		logrus.Errorf("Failed to audit compliance decision for outreach %d: %v", item.OutreachID, err)
	}
}
