package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"outreach-engine-go/internal/config"
)

// GmailSender sends mail through the Gmail API using an OAuth2 refresh
// token. Token refresh itself is handled by the oauth2 token source.
type GmailSender struct {
	service   *gmail.Service
	userEmail string
	timeout   time.Duration
}

// NewGmailSender creates a Gmail API sender from mailer configuration.
func NewGmailSender(cfg *config.MailerConfig) (*GmailSender, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailSender{
		service:   service,
		userEmail: cfg.UserEmail,
		timeout:   cfg.SendTimeout,
	}, nil
}

// Send delivers one message. Exactly one transport call per invocation;
// retries belong to the dispatcher.
func (s *GmailSender) Send(ctx context.Context, msg Message) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw := base64.URLEncoding.EncodeToString([]byte(buildRawMessage(msg)))
	message := &gmail.Message{Raw: raw}

	sent, err := s.service.Users.Messages.Send(s.userEmail, message).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail send failed: %w", err)
	}
	return &Response{ProviderID: sent.Id, Provider: "gmail"}, nil
}

// buildRawMessage assembles the RFC 2822 message text.
func buildRawMessage(msg Message) string {
	var b strings.Builder

	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}

	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return b.String()
}
