package outreach

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach-engine-go/internal/compliance"
	"outreach-engine-go/internal/counter"
	"outreach-engine-go/internal/dispatch"
	"outreach-engine-go/internal/mailer"
	"outreach-engine-go/internal/ratelimit"
)

var fastRetry = dispatch.Policy{
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	MaxAttempts:  3,
}

type fakeSender struct {
	failAlways bool
	calls      int
	sent       []mailer.Message
}

func (s *fakeSender) Send(ctx context.Context, msg mailer.Message) (*mailer.Response, error) {
	s.calls++
	if s.failAlways {
		return nil, errors.New("provider unavailable")
	}
	s.sent = append(s.sent, msg)
	return &mailer.Response{ProviderID: "msg-1", Provider: "test"}, nil
}

type fakeSuppressions struct {
	blocked map[string]bool
}

func (f *fakeSuppressions) IsSuppressed(email string) (bool, error) {
	return f.blocked[email], nil
}

type auditEntry struct {
	Action  string
	Source  string
	Details map[string]interface{}
}

type fakeAudit struct {
	entries []auditEntry
}

func (f *fakeAudit) LogAudit(action, source, legalBasis string, details map[string]interface{}) error {
	f.entries = append(f.entries, auditEntry{Action: action, Source: source, Details: details})
	return nil
}

func newTestProcessor(sender mailer.Sender, suppressed map[string]bool, dailyLimit int64) (*Processor, *fakeAudit) {
	audit := &fakeAudit{}
	limiter := ratelimit.NewLimiter(counter.NewMemoryStore(), dailyLimit, dailyLimit)
	evaluator := compliance.NewEvaluator(map[string]string{
		"US": compliance.PolicyAutoSend,
		"EU": compliance.PolicyOptInOnly,
	})
	p := NewProcessor(sender, &fakeSuppressions{blocked: suppressed}, limiter, evaluator, audit,
		"jane@acme.example", "Jane Doe")
	p.SetRetryPolicy(fastRetry)
	return p, audit
}

func regionPtr(s string) *string { return &s }

func TestDomain(t *testing.T) {
	assert.Equal(t, "acme.example", Domain("sam@acme.example"))
	assert.Equal(t, "acme.example", Domain("Sam@ACME.Example"))
	assert.Equal(t, "", Domain("not-an-email"))
	assert.Equal(t, "", Domain("trailing@"))
	assert.Equal(t, "", Domain(""))
}

func TestProcessMissingEmail(t *testing.T) {
	sender := &fakeSender{}
	p, audit := newTestProcessor(sender, nil, 5)

	results := p.Process(context.Background(), []Item{{OutreachID: 1}})
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, ReasonMissingEmail, results[0].Reason)
	assert.Zero(t, sender.calls)
	// No recipient means nothing reached the compliance gate
	assert.Empty(t, audit.entries)
}

func TestProcessComplianceBlocks(t *testing.T) {
	sender := &fakeSender{}
	p, audit := newTestProcessor(sender, nil, 5)

	results := p.Process(context.Background(), []Item{
		{OutreachID: 1, ToEmail: "a@x.example"},
		{OutreachID: 2, ToEmail: "b@x.example", Region: regionPtr("EU"), IsOptIn: false},
	})

	require.Len(t, results, 2)
	assert.Equal(t, StatusBlocked, results[0].Status)
	assert.Equal(t, compliance.ReasonMissingRegion, results[0].Reason)
	assert.Equal(t, StatusBlocked, results[1].Status)
	assert.Equal(t, compliance.ReasonOptInRequired, results[1].Reason)
	assert.Zero(t, sender.calls)

	// Blocked evaluations are audited too
	require.Len(t, audit.entries, 2)
	assert.Equal(t, "compliance_evaluation", audit.entries[0].Action)
	assert.Equal(t, false, audit.entries[0].Details["allowed"])
	assert.Equal(t, compliance.ReasonMissingRegion, audit.entries[0].Details["reason"])
}

func TestProcessSuppressedRecipient(t *testing.T) {
	sender := &fakeSender{}
	p, _ := newTestProcessor(sender, map[string]bool{"sam@x.example": true}, 5)

	results := p.Process(context.Background(), []Item{
		{OutreachID: 1, ToEmail: "sam@x.example", Region: regionPtr("US")},
	})

	require.Len(t, results, 1)
	assert.Equal(t, StatusBlocked, results[0].Status)
	assert.Equal(t, ReasonSuppressed, results[0].Reason)
	assert.Zero(t, sender.calls)
}

func TestProcessRateLimited(t *testing.T) {
	sender := &fakeSender{}
	p, _ := newTestProcessor(sender, nil, 1)

	results := p.Process(context.Background(), []Item{
		{OutreachID: 1, ToEmail: "a@x.example", Region: regionPtr("US"), Subject: "s", Body: "b"},
		{OutreachID: 2, ToEmail: "b@y.example", Region: regionPtr("US"), Subject: "s", Body: "b"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, StatusSent, results[0].Status)
	assert.Equal(t, StatusBlocked, results[1].Status)
	assert.Equal(t, ReasonRateLimited, results[1].Reason)
	assert.Equal(t, 1, sender.calls)
}

func TestProcessSendsEligibleItem(t *testing.T) {
	sender := &fakeSender{}
	p, audit := newTestProcessor(sender, nil, 5)

	results := p.Process(context.Background(), []Item{
		{OutreachID: 7, ToEmail: "sam@x.example", Region: regionPtr("US"), Subject: "Hello", Body: "Short note"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, StatusSent, results[0].Status)
	assert.Empty(t, results[0].Reason)
	require.NotNil(t, results[0].SentAt)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "sam@x.example", sender.sent[0].To)
	assert.Equal(t, "jane@acme.example", sender.sent[0].From)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, true, audit.entries[0].Details["allowed"])
}

func TestProcessRetryExhaustedReleasesReservation(t *testing.T) {
	sender := &fakeSender{failAlways: true}
	p, _ := newTestProcessor(sender, nil, 1)

	results := p.Process(context.Background(), []Item{
		{OutreachID: 1, ToEmail: "a@x.example", Region: regionPtr("US"), Subject: "s", Body: "b"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, ReasonSendRetryExhausted, results[0].Reason)
	assert.Equal(t, fastRetry.MaxAttempts, sender.calls)

	// The failed item must not have consumed the single daily slot
	sender.failAlways = false
	results = p.Process(context.Background(), []Item{
		{OutreachID: 2, ToEmail: "b@x.example", Region: regionPtr("US"), Subject: "s", Body: "b"},
	})
	require.Len(t, results, 1)
	assert.Equal(t, StatusSent, results[0].Status)
}

func TestProcessCancelledContextIsSendError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &fakeSender{failAlways: true}
	p, _ := newTestProcessor(sender, nil, 5)

	results := p.Process(ctx, []Item{
		{OutreachID: 1, ToEmail: "a@x.example", Region: regionPtr("US"), Subject: "s", Body: "b"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, ReasonSendError, results[0].Reason)
}

func TestProcessFailureDoesNotAbortBatch(t *testing.T) {
	sender := &fakeSender{}
	p, _ := newTestProcessor(sender, nil, 5)

	results := p.Process(context.Background(), []Item{
		{OutreachID: 1},
		{OutreachID: 2, ToEmail: "b@x.example", Region: regionPtr("US"), Subject: "s", Body: "b"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, StatusSent, results[1].Status)
}
