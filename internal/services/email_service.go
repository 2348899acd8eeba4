package services

import (
	"fmt"
	"html"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"dealdesk/internal/config"
)

type EmailService interface {
	SendPasswordResetEmail(email, token string) error
}

// mailDialer is the part of *gomail.Dialer the service uses.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer mailDialer
	from   string
}

// NewEmailService sends through SMTP when a host is configured and only
// logs the message otherwise.
func NewEmailService(cfg config.EmailConfig, logger *zap.Logger) EmailService {
	if cfg.SMTPHost == "" {
		return &logOnlyEmail{logger: logger}
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return &emailService{
		dialer: dialer,
		from:   cfg.FromEmail,
	}
}

func (s *emailService) SendPasswordResetEmail(email, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Password reset request")

	body := fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your dealdesk account.</p>
		<p>Use the following token to reset your password: <strong>%s</strong></p>
		<p>If you did not request this change, you can ignore this email.</p>
	`, html.EscapeString(token))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}

type logOnlyEmail struct {
	logger *zap.Logger
}

func (e *logOnlyEmail) SendPasswordResetEmail(email, _ string) error {
	e.logger.Info("smtp not configured, password reset email skipped", zap.String("to", email))
	return nil
}
