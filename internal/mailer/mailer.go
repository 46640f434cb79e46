// Package mailer defines the outbound mail transport and its Gmail API
// and SMTP implementations.
package mailer

import "context"

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	Body     string
	From     string
	FromName string
}

// Response is the provider acknowledgement for a sent message.
type Response struct {
	ProviderID string
	Provider   string
}

// Sender delivers a single message through an external transport. A
// failed delivery returns an error; retry policy is the caller's job.
type Sender interface {
	Send(ctx context.Context, msg Message) (*Response, error)
}
