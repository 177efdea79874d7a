package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

type Service interface {
	SendWelcome(ctx context.Context, email string, name string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

// Dialer is the part of gomail.Dialer the SMTP service uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer Dialer
	from   string
	logger zerolog.Logger
}

func NewSMTPService(cfg Config, logger zerolog.Logger) Service {
	return NewService(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, logger)
}

func NewService(dialer Dialer, from string, logger zerolog.Logger) Service {
	return &smtpService{dialer: dialer, from: from, logger: logger}
}

func (s *smtpService) SendWelcome(ctx context.Context, email string, name string) error {
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your VetBook account is ready. You can now book visits for your pets.</p>", name)
	return s.SendCustom(ctx, email, "Welcome to VetBook", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

type nopService struct{}

// NewNopService returns a Service that discards every message.
func NewNopService() Service { return nopService{} }

func (nopService) SendWelcome(context.Context, string, string) error        { return nil }
func (nopService) SendCustom(context.Context, string, string, string) error { return nil }
