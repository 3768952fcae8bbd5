package email

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// Service sends the portal's transactional mail.
type Service interface {
	SendPasswordResetNotice(ctx context.Context, to string) error
	SendWelcome(ctx context.Context, to string, name string) error
	Enabled() bool
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// PortalURL is linked from mail bodies.
	PortalURL string
}

// SMTPService delivers mail through an SMTP relay with gomail.
type SMTPService struct {
	cfg  Config
	send func(msgs ...*gomail.Message) error
}

// NewService returns an SMTP-backed Service, or a no-op one when no host is
// configured.
func NewService(cfg Config) Service {
	if cfg.Host == "" {
		return NopService{}
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPService{cfg: cfg, send: dialer.DialAndSend}
}

func (s *SMTPService) Enabled() bool { return true }

func (s *SMTPService) SendPasswordResetNotice(ctx context.Context, to string) error {
	body := fmt.Sprintf(`Hello,

We received a request to reset the password for your HealthMate account.
If an account exists for this address, our support team will follow up with
instructions. If you did not make this request you can ignore this email.

%s
`, s.cfg.PortalURL)
	return s.deliver(ctx, to, "HealthMate password reset request", body)
}

func (s *SMTPService) SendWelcome(ctx context.Context, to string, name string) error {
	body := fmt.Sprintf(`Hi %s,

Welcome to HealthMate. Your patient account is ready; sign in to book
appointments, view prescriptions and pay invoices.

%s
`, strings.TrimSpace(name), s.cfg.PortalURL)
	return s.deliver(ctx, to, "Welcome to HealthMate", body)
}

func (s *SMTPService) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send %q mail: %w", subject, err)
	}
	return nil
}

// NopService drops every message.
type NopService struct{}

func (NopService) SendPasswordResetNotice(context.Context, string) error { return nil }
func (NopService) SendWelcome(context.Context, string, string) error     { return nil }
func (NopService) Enabled() bool                                         { return false }
