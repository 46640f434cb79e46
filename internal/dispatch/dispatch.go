// Package dispatch wraps a mail transport call in a bounded
// exponential-backoff retry.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/mailer"
)

// ErrRetryExhausted marks a failure where the retry policy itself gave
// up. Callers use errors.Is to distinguish send_retry_exhausted from a
// plain send_error.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// Policy bounds a retry loop: exponential backoff from InitialDelay,
// doubling up to MaxDelay, at most MaxAttempts total attempts.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultPolicy is the send retry policy: 1s, 2s, 4s... capped at 8s,
// three attempts total.
var DefaultPolicy = Policy{
	InitialDelay: time.Second,
	MaxDelay:     8 * time.Second,
	MaxAttempts:  3,
}

// Retry runs fn until it succeeds, the policy is exhausted, or ctx is
// cancelled. When every attempt fails the final error is wrapped in
// ErrRetryExhausted.
func Retry(ctx context.Context, policy Policy, fn func() error) error {
	delay := policy.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == policy.MaxAttempts {
			break
		}

		logrus.Warnf("Attempt %d/%d failed, retrying in %v: %v",
			attempt, policy.MaxAttempts, delay, lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return fmt.Errorf("%w: %w", ErrRetryExhausted, lastErr)
}

// SendWithRetry dispatches one message through the transport under the
// default policy.
func SendWithRetry(ctx context.Context, sender mailer.Sender, msg mailer.Message) (*mailer.Response, error) {
	return SendWithPolicy(ctx, DefaultPolicy, sender, msg)
}

// SendWithPolicy dispatches one message under an explicit retry policy.
func SendWithPolicy(ctx context.Context, policy Policy, sender mailer.Sender, msg mailer.Message) (*mailer.Response, error) {
	var resp *mailer.Response
	err := Retry(ctx, policy, func() error {
		var sendErr error
		resp, sendErr = sender.Send(ctx, msg)
		return sendErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
