// Package mailer sends plain transactional email.
package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"landlords/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Body    string // plain text
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Options selects and configures a Mailer.
type Options struct {
	Provider    string // log | sendgrid
	APIKey      string
	FromEmail   string
	FromName    string
	SandboxMode bool
}

func New(opts Options) (Mailer, error) {
	switch opts.Provider {
	case "", "log":
		return LogMailer{}, nil
	case "sendgrid":
		return NewSendGridMailer(opts.APIKey, opts.FromName, opts.FromEmail, opts.SandboxMode), nil
	}
	return nil, fmt.Errorf("mailer: unknown provider %q", opts.Provider)
}

type SendGridMailer struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
	sandbox   bool
}

func NewSendGridMailer(apiKey, fromName, fromEmail string, sandbox bool) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
		sandbox:   sandbox,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, htmlBody(msg.Body))
	if m.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		email.MailSettings = ms
	}
	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func htmlBody(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>"
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logger.Logger.WithField("to", msg.ToEmail).Infof("mail: %s", msg.Subject)
	return nil
}
