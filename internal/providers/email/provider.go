package email

import "context"

// Message is a templated notification addressed to one or more recipients.
type Message struct {
	To       []string
	Subject  string
	Template string
	Context  map[string]any
}

type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	SendTemplate(ctx context.Context, msg Message) error
}

// NoOpProvider drops every message. Used when SMTP is not configured.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (p *NoOpProvider) SendTemplate(ctx context.Context, msg Message) error {
	return nil
}
