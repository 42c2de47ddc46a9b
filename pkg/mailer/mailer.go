package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Mailer sends plain-text email.
type Mailer interface {
	Send(ctx context.Context, message *Message) error
}

type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Body    string
	HTML    bool
}

type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	FromEmail  string
	FromName   string
	TLS        bool
	AuthMethod string
}

type SMTPMailer struct {
	config *Config
}

func NewSMTPMailer(config *Config) *SMTPMailer {
	return &SMTPMailer{config: config}
}

func (m *SMTPMailer) client() (*mail.Client, error) {
	opts := []mail.Option{mail.WithPort(m.config.Port)}
	if m.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(authType(m.config.AuthMethod)),
			mail.WithUsername(m.config.Username),
			mail.WithPassword(m.config.Password),
		)
	}
	if m.config.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	c, err := mail.NewClient(m.config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize smtp client: %w", err)
	}
	return c, nil
}

func (m *SMTPMailer) Send(ctx context.Context, message *Message) error {
	if len(message.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set from address: %w", err)
	}
	if err := msg.To(message.To...); err != nil {
		return fmt.Errorf("failed to set to address: %w", err)
	}
	if message.ReplyTo != "" {
		if err := msg.ReplyTo(message.ReplyTo); err != nil {
			return fmt.Errorf("failed to set reply-to address: %w", err)
		}
	}
	msg.Subject(message.Subject)
	if message.HTML {
		msg.SetBodyString(mail.TypeTextHTML, message.Body)
	} else {
		msg.SetBodyString(mail.TypeTextPlain, message.Body)
	}

	c, err := m.client()
	if err != nil {
		return err
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func authType(method string) mail.SMTPAuthType {
	switch method {
	case "login":
		return mail.SMTPAuthLogin
	case "cram-md5":
		return mail.SMTPAuthCramMD5
	default:
		return mail.SMTPAuthPlain
	}
}
