// Package outbox drives the approved-draft send stage: the kill
// switch, the health breaker, per-draft rate reservation, preflight and
// the audited dispatch.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/compliance"
	"outreach-engine-go/internal/dispatch"
	"outreach-engine-go/internal/mailer"
	"outreach-engine-go/internal/metrics"
	"outreach-engine-go/internal/model"
	"outreach-engine-go/internal/outreach"
	"outreach-engine-go/internal/preflight"
	"outreach-engine-go/internal/ratelimit"
	"outreach-engine-go/internal/render"
	"outreach-engine-go/internal/sendhealth"
)

// Store is the persistence surface the send stage needs.
type Store interface {
	FetchApprovedDrafts(limit int) ([]model.OutboxDraft, error)
	GetDraft(id uint) (*model.OutboxDraft, error)
	GetLead(id uint) (*model.Lead, error)
	GetCompany(id uint) (*model.Company, error)
	IsSuppressed(email string) (bool, error)
	LogAudit(action, source, legalBasis string, details map[string]interface{}) error
	MarkDraftSent(draft *model.OutboxDraft) error
	AdvanceLeadStatus(lead *model.Lead, target string) error
}

// BlockedError reports why a send attempt was refused. Reason is one of
// the machine-readable outcome reasons.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("send blocked: %s", e.Reason)
}

// Sender runs the outbox send stage.
type Sender struct {
	repo      Store
	transport mailer.Sender
	limiter   *ratelimit.Limiter
	health    *sendhealth.Monitor
	evaluator *compliance.Evaluator
	metrics   *metrics.Metrics
	signature render.Signature
	enabled   bool
	from      string
	fromName  string
	batchSize int
	retry     dispatch.Policy
}

// NewSender creates the send stage. enabled is the global kill switch:
// when false every attempt fails with sending_disabled before any
// other gate, with no I/O.
func NewSender(repo Store, transport mailer.Sender, limiter *ratelimit.Limiter,
	health *sendhealth.Monitor, evaluator *compliance.Evaluator, m *metrics.Metrics,
	signature render.Signature, enabled bool, from, fromName string) *Sender {
	return &Sender{
		repo:      repo,
		transport: transport,
		limiter:   limiter,
		health:    health,
		evaluator: evaluator,
		metrics:   m,
		signature: signature,
		enabled:   enabled,
		from:      from,
		fromName:  fromName,
		batchSize: 50,
		retry:     dispatch.DefaultPolicy,
	}
}

// SetRetryPolicy overrides the dispatch retry schedule.
func (s *Sender) SetRetryPolicy(p dispatch.Policy) {
	s.retry = p
}

// Run processes one batch of approved drafts. The kill switch and the
// health breaker are evaluated once at the top; a spike detected
// mid-batch only pauses the next run.
func (s *Sender) Run(ctx context.Context) error {
	if !s.enabled {
		logrus.Warn("Sending disabled by kill switch, skipping batch")
		return &BlockedError{Reason: outreach.ReasonSendingDisabled}
	}

	start := time.Now()
	s.metrics.BatchRuns.Inc()

	paused, err := s.health.IsPaused(start)
	if err != nil {
		return fmt.Errorf("failed to check send health: %w", err)
	}
	if paused {
		s.metrics.SendPaused.Set(1)
		logrus.Warn("Sending paused by error spike, skipping batch")
		return nil
	}
	s.metrics.SendPaused.Set(0)

	drafts, err := s.repo.FetchApprovedDrafts(s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch approved drafts: %w", err)
	}

	sent := 0
	for i := range drafts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.sendDraft(ctx, &drafts[i], "outbox_sender"); err != nil {
			var blocked *BlockedError
			if errors.As(err, &blocked) {
				logrus.Warnf("Draft %d not sent: %s", drafts[i].ID, blocked.Reason)
				continue
			}
			logrus.Errorf("Draft %d send failed: %v", drafts[i].ID, err)
			continue
		}
		sent++
	}

	s.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	logrus.Infof("Outbox batch finished: %d sent of %d eligible", sent, len(drafts))
	return nil
}

// SendDraft sends one draft by id, applying the full guardrail chain.
// Used by the administrative send endpoint.
func (s *Sender) SendDraft(ctx context.Context, draftID uint) error {
	if !s.enabled {
		return &BlockedError{Reason: outreach.ReasonSendingDisabled}
	}

	draft, err := s.repo.GetDraft(draftID)
	if err != nil {
		return err
	}
	if draft == nil {
		return fmt.Errorf("draft %d not found", draftID)
	}
	return s.sendDraft(ctx, draft, "api_send")
}

func (s *Sender) sendDraft(ctx context.Context, draft *model.OutboxDraft, source string) error {
	if draft.ToEmail == "" {
		s.metrics.FailedTotal.WithLabelValues(outreach.ReasonMissingEmail).Inc()
		return &BlockedError{Reason: outreach.ReasonMissingEmail}
	}

	lead, err := s.repo.GetLead(draft.LeadID)
	if err != nil {
		return err
	}
	if lead == nil {
		return fmt.Errorf("lead %d not found for draft %d", draft.LeadID, draft.ID)
	}
	company, err := s.repo.GetCompany(lead.CompanyID)
	if err != nil {
		return err
	}
	if company == nil {
		return fmt.Errorf("company %d not found for lead %d", lead.CompanyID, lead.ID)
	}

	// Compliance is evaluated fresh on every attempt; opt-in state can
	// change between enqueue and send.
	decision := s.evaluator.Evaluate(lead.Region, lead.OptIn)
	complianceDetails := map[string]interface{}{
		"draft_id":  draft.ID,
		"lead_id":   lead.ID,
		"to_email":  draft.ToEmail,
		"is_opt_in": lead.OptIn,
		"allowed":   decision.Allowed,
		"reason":    decision.Reason,
	}
	if lead.Region != nil {
		complianceDetails["region"] = *lead.Region
	}
	if err := s.repo.LogAudit("compliance_evaluation", source, "", complianceDetails); err != nil {
		return fmt.Errorf("failed to audit compliance for draft %d: %w", draft.ID, err)
	}
	if !decision.Allowed {
		s.metrics.BlockedTotal.WithLabelValues(decision.Reason).Inc()
		return &BlockedError{Reason: decision.Reason}
	}

	suppressed, err := s.repo.IsSuppressed(draft.ToEmail)
	if err != nil {
		return err
	}
	if suppressed {
		s.metrics.BlockedTotal.WithLabelValues(outreach.ReasonSuppressed).Inc()
		return &BlockedError{Reason: outreach.ReasonSuppressed}
	}

	now := time.Now().UTC()
	domain := outreach.Domain(draft.ToEmail)
	reserved, err := s.limiter.Reserve(now, domain)
	if err != nil {
		return err
	}
	if !reserved {
		s.metrics.BlockedTotal.WithLabelValues(outreach.ReasonRateLimited).Inc()
		return &BlockedError{Reason: outreach.ReasonRateLimited}
	}

	result := preflight.Run(draft, lead, company, s.signature)
	result.Details["sender_email"] = s.from
	result.Details["enable_sending"] = s.enabled
	if err := s.repo.LogAudit("send_preflight", source, "", result.Details); err != nil {
		// The audit trail is a hard requirement; without it the send
		// must not proceed.
		s.releaseQuietly(now, domain, draft.ID)
		return fmt.Errorf("failed to audit preflight for draft %d: %w", draft.ID, err)
	}
	if !result.Allowed {
		s.releaseQuietly(now, domain, draft.ID)
		s.metrics.BlockedTotal.WithLabelValues(outreach.ReasonPreflightFailed).Inc()
		return &BlockedError{Reason: outreach.ReasonPreflightFailed}
	}

	msg := mailer.Message{
		To:       draft.ToEmail,
		Subject:  draft.Subject,
		Body:     render.Body(draft.BodyText, s.signature),
		From:     s.from,
		FromName: s.fromName,
	}
	if _, err := dispatch.SendWithPolicy(ctx, s.retry, s.transport, msg); err != nil {
		s.releaseQuietly(now, domain, draft.ID)
		if _, healthErr := s.health.RecordError(now); healthErr != nil {
			logrus.Errorf("Failed to record send error for draft %d: %v", draft.ID, healthErr)
		}
		reason := outreach.ReasonSendError
		if errors.Is(err, dispatch.ErrRetryExhausted) {
			reason = outreach.ReasonSendRetryExhausted
		}
		s.metrics.FailedTotal.WithLabelValues(reason).Inc()
		return fmt.Errorf("%s: %w", reason, err)
	}

	if err := s.repo.MarkDraftSent(draft); err != nil {
		return err
	}
	if err := s.repo.AdvanceLeadStatus(lead, model.LeadStatusSent); err != nil {
		return err
	}

	s.metrics.SendsTotal.Inc()
	logrus.Infof("Sent draft %d to %s", draft.ID, draft.ToEmail)
	return nil
}

func (s *Sender) releaseQuietly(ts time.Time, domain string, draftID uint) {
	if err := s.limiter.Release(ts, domain); err != nil {
		logrus.Errorf("Failed to release rate reservation for draft %d: %v", draftID, err)
	}
}
