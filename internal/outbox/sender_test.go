package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach-engine-go/internal/compliance"
	"outreach-engine-go/internal/counter"
	"outreach-engine-go/internal/dispatch"
	"outreach-engine-go/internal/mailer"
	"outreach-engine-go/internal/metrics"
	"outreach-engine-go/internal/model"
	"outreach-engine-go/internal/outreach"
	"outreach-engine-go/internal/ratelimit"
	"outreach-engine-go/internal/render"
	"outreach-engine-go/internal/sendhealth"
)

var fastRetry = dispatch.Policy{
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	MaxAttempts:  3,
}

type auditEntry struct {
	Action  string
	Source  string
	Details map[string]interface{}
}

type fakeStore struct {
	drafts     map[uint]*model.OutboxDraft
	leads      map[uint]*model.Lead
	companies  map[uint]*model.Company
	suppressed map[string]bool

	audits       []auditEntry
	sentDrafts   []uint
	leadAdvances []string
	failAudit    string
	fetchedBatch bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		drafts:     make(map[uint]*model.OutboxDraft),
		leads:      make(map[uint]*model.Lead),
		companies:  make(map[uint]*model.Company),
		suppressed: make(map[string]bool),
	}
}

func (f *fakeStore) FetchApprovedDrafts(limit int) ([]model.OutboxDraft, error) {
	f.fetchedBatch = true
	var out []model.OutboxDraft
	for _, d := range f.drafts {
		if d.Status == model.DraftStatusApproved && d.ApprovedByHuman {
			out = append(out, *d)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) GetDraft(id uint) (*model.OutboxDraft, error)  { return f.drafts[id], nil }
func (f *fakeStore) GetLead(id uint) (*model.Lead, error)          { return f.leads[id], nil }
func (f *fakeStore) GetCompany(id uint) (*model.Company, error)    { return f.companies[id], nil }
func (f *fakeStore) IsSuppressed(email string) (bool, error)       { return f.suppressed[email], nil }

func (f *fakeStore) LogAudit(action, source, legalBasis string, details map[string]interface{}) error {
	if f.failAudit != "" && f.failAudit == action {
		return errors.New("audit store unavailable")
	}
	f.audits = append(f.audits, auditEntry{Action: action, Source: source, Details: details})
	return nil
}

func (f *fakeStore) MarkDraftSent(draft *model.OutboxDraft) error {
	f.sentDrafts = append(f.sentDrafts, draft.ID)
	draft.Status = model.DraftStatusSent
	return nil
}

func (f *fakeStore) AdvanceLeadStatus(lead *model.Lead, target string) error {
	f.leadAdvances = append(f.leadAdvances, target)
	lead.Status = target
	return nil
}

func (f *fakeStore) auditActions() []string {
	actions := make([]string, len(f.audits))
	for i, e := range f.audits {
		actions[i] = e.Action
	}
	return actions
}

type fakeTransport struct {
	failAlways bool
	failures   int
	calls      int
	sent       []mailer.Message
}

func (s *fakeTransport) Send(ctx context.Context, msg mailer.Message) (*mailer.Response, error) {
	s.calls++
	if s.failAlways || s.calls <= s.failures {
		return nil, errors.New("provider unavailable")
	}
	s.sent = append(s.sent, msg)
	return &mailer.Response{ProviderID: "msg-1", Provider: "test"}, nil
}

func testSignature() render.Signature {
	return render.Signature{Name: "Jane Doe", Title: "Partnerships", Org: "Acme Labs"}
}

func regionPtr(s string) *string { return &s }

// seedDraft installs a fully sendable approved draft with its lead and
// company.
func seedDraft(store *fakeStore, id uint) *model.OutboxDraft {
	draft := &model.OutboxDraft{
		ID:              id,
		LeadID:          id,
		ToEmail:         "sam@prospect.example",
		Subject:         "Quick question",
		BodyText:        "Saw the Berlin office news. Curious how onboarding works across sites.",
		Status:          model.DraftStatusApproved,
		ApprovedByHuman: true,
	}
	store.drafts[id] = draft
	store.leads[id] = &model.Lead{
		ID:           id,
		CompanyID:    id,
		ContactEmail: draft.ToEmail,
		Status:       model.LeadStatusApproved,
		Region:       regionPtr("US"),
	}
	store.companies[id] = &model.Company{ID: id, Name: "Prospect GmbH"}
	return draft
}

type senderFixture struct {
	store     *fakeStore
	transport *fakeTransport
	limiter   *ratelimit.Limiter
	health    *sendhealth.Monitor
	sender    *Sender
}

func newFixture(enabled bool, dailyLimit int64) *senderFixture {
	store := newFakeStore()
	transport := &fakeTransport{}
	limiter := ratelimit.NewLimiter(counter.NewMemoryStore(), dailyLimit, dailyLimit)
	health := sendhealth.NewMonitor(counter.NewMemoryStore(), 1)
	evaluator := compliance.NewEvaluator(map[string]string{
		"US": compliance.PolicyAutoSend,
		"EU": compliance.PolicyOptInOnly,
	})
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	sender := NewSender(store, transport, limiter, health, evaluator, m,
		testSignature(), enabled, "jane@acme.example", "Jane Doe")
	sender.SetRetryPolicy(fastRetry)
	return &senderFixture{
		store:     store,
		transport: transport,
		limiter:   limiter,
		health:    health,
		sender:    sender,
	}
}

func TestKillSwitchBlocksBeforeAnythingElse(t *testing.T) {
	f := newFixture(false, 5)
	seedDraft(f.store, 1)

	err := f.sender.Run(context.Background())
	var blocked *BlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, outreach.ReasonSendingDisabled, blocked.Reason)

	err = f.sender.SendDraft(context.Background(), 1)
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, outreach.ReasonSendingDisabled, blocked.Reason)

	// Disabled sending must leave no trace: no fetch, no audit, no
	// transport call.
	assert.False(t, f.store.fetchedBatch)
	assert.Empty(t, f.store.audits)
	assert.Zero(t, f.transport.calls)
}

func TestSendDraftHappyPath(t *testing.T) {
	f := newFixture(true, 5)
	draft := seedDraft(f.store, 1)

	err := f.sender.SendDraft(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, f.transport.sent, 1)
	msg := f.transport.sent[0]
	assert.Equal(t, "sam@prospect.example", msg.To)
	assert.Contains(t, msg.Body, render.ComplianceFooter)
	assert.Contains(t, msg.Body, "Jane Doe")

	assert.Equal(t, []uint{1}, f.store.sentDrafts)
	assert.Equal(t, model.DraftStatusSent, draft.Status)
	assert.Equal(t, []string{model.LeadStatusSent}, f.store.leadAdvances)
	assert.Equal(t, []string{"compliance_evaluation", "send_preflight"}, f.store.auditActions())
	assert.Equal(t, "api_send", f.store.audits[0].Source)
}

func TestSendDraftComplianceReevaluatedAtSendTime(t *testing.T) {
	f := newFixture(true, 5)
	seedDraft(f.store, 1)
	// Approval happened earlier; by send time the lead turns out to sit
	// in an opt-in-only region without consent.
	f.store.leads[1].Region = regionPtr("EU")
	f.store.leads[1].OptIn = false

	err := f.sender.SendDraft(context.Background(), 1)
	var blocked *BlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, compliance.ReasonOptInRequired, blocked.Reason)
	assert.Zero(t, f.transport.calls)

	// The refusal itself is audited
	require.Len(t, f.store.audits, 1)
	assert.Equal(t, "compliance_evaluation", f.store.audits[0].Action)
	assert.Equal(t, false, f.store.audits[0].Details["allowed"])
}

func TestSendDraftSuppressedRecipient(t *testing.T) {
	f := newFixture(true, 5)
	seedDraft(f.store, 1)
	f.store.suppressed["sam@prospect.example"] = true

	err := f.sender.SendDraft(context.Background(), 1)
	var blocked *BlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, outreach.ReasonSuppressed, blocked.Reason)
	assert.Zero(t, f.transport.calls)
}

func TestSendDraftRateLimited(t *testing.T) {
	f := newFixture(true, 0)
	seedDraft(f.store, 1)

	err := f.sender.SendDraft(context.Background(), 1)
	var blocked *BlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, outreach.ReasonRateLimited, blocked.Reason)
	assert.Zero(t, f.transport.calls)
}

func TestSendDraftPreflightFailureReleasesReservation(t *testing.T) {
	f := newFixture(true, 1)
	draft := seedDraft(f.store, 1)
	draft.ApprovedByHuman = false

	err := f.sender.SendDraft(context.Background(), 1)
	var blocked *BlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, outreach.ReasonPreflightFailed, blocked.Reason)
	assert.Zero(t, f.transport.calls)

	// The failed attempt is still fully audited
	require.Len(t, f.store.audits, 2)
	preflightAudit := f.store.audits[1]
	assert.Equal(t, "send_preflight", preflightAudit.Action)
	assert.Equal(t, false, preflightAudit.Details["approved_by_human"])

	// The single daily slot must be back
	ok, err := f.limiter.Reserve(time.Now().UTC(), "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSendDraftAuditFailureAbortsSend(t *testing.T) {
	f := newFixture(true, 1)
	seedDraft(f.store, 1)
	f.store.failAudit = "send_preflight"

	err := f.sender.SendDraft(context.Background(), 1)
	require.Error(t, err)
	assert.Zero(t, f.transport.calls)
	assert.Empty(t, f.store.sentDrafts)

	ok, _ := f.limiter.Reserve(time.Now().UTC(), "")
	assert.True(t, ok, "reservation should be released when the audit write fails")
}

func TestSendDraftTransportFailure(t *testing.T) {
	f := newFixture(true, 1)
	seedDraft(f.store, 1)
	f.transport.failAlways = true

	err := f.sender.SendDraft(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), outreach.ReasonSendRetryExhausted)
	assert.Equal(t, fastRetry.MaxAttempts, f.transport.calls)
	assert.Empty(t, f.store.sentDrafts)
	assert.Empty(t, f.store.leadAdvances)

	// The failure counts toward the health monitor
	paused, err := f.health.IsPaused(time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, paused)

	// And the reservation was refunded
	ok, _ := f.limiter.Reserve(time.Now().UTC(), "")
	assert.True(t, ok)
}

func TestSendDraftSucceedsAfterTransientFailures(t *testing.T) {
	f := newFixture(true, 5)
	draft := seedDraft(f.store, 1)
	f.transport.failures = 2

	err := f.sender.SendDraft(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, f.transport.calls)
	assert.Equal(t, model.DraftStatusSent, draft.Status)

	// Transient failures absorbed by the retry policy do not feed the
	// health monitor.
	paused, _ := f.health.IsPaused(time.Now().UTC())
	assert.False(t, paused)
}

func TestRunSkipsBatchWhenPaused(t *testing.T) {
	f := newFixture(true, 5)
	seedDraft(f.store, 1)
	_, err := f.health.RecordError(time.Now().UTC())
	require.NoError(t, err)

	err = f.sender.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, f.store.fetchedBatch)
	assert.Zero(t, f.transport.calls)
}

func TestRunSendsApprovedBatch(t *testing.T) {
	f := newFixture(true, 5)
	seedDraft(f.store, 1)
	seedDraft(f.store, 2)
	// An unapproved draft must not even be fetched
	f.store.drafts[3] = &model.OutboxDraft{ID: 3, LeadID: 3, ToEmail: "x@y.example", Status: model.DraftStatusDraft}

	err := f.sender.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.transport.calls)
	assert.ElementsMatch(t, []uint{1, 2}, f.store.sentDrafts)
}

func TestRunToleratesBlockedDrafts(t *testing.T) {
	f := newFixture(true, 1)
	seedDraft(f.store, 1)
	seedDraft(f.store, 2)

	// Daily limit of one: one draft sends, the other is blocked, the
	// batch still completes without error.
	err := f.sender.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.store.sentDrafts, 1)
	assert.Equal(t, 1, f.transport.calls)
}
