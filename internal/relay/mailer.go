package relay

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"classyai/pkg/config"
)

// Message is one rendered lead email.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through a single SMTP relay. Each Send dials a fresh
// connection.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	em, err := buildMessage(m.from, msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, em); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func buildMessage(from string, msg Message) (*mail.Msg, error) {
	em := mail.NewMsg()
	if err := em.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := em.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid inbox address: %w", err)
	}
	if msg.ReplyTo != "" {
		// A bad visitor address should not block delivery.
		_ = em.ReplyTo(msg.ReplyTo)
	}
	em.Subject(msg.Subject)
	em.SetBodyString(mail.TypeTextPlain, msg.Body)
	return em, nil
}
