package services

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/playgrid/arena/config"
)

// EmailService отправляет транзакционные письма. Если SMTP не настроен,
// письма не отправляются, а ссылки пишутся в лог (режим разработки).
type EmailService struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewEmailService(cfg *config.Config, logger *slog.Logger) *EmailService {
	return &EmailService{cfg: cfg, logger: logger}
}

func (s *EmailService) SendPasswordResetEmail(userEmail string, resetToken string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicURL, resetToken)

	if s.cfg.SMTPHost == "" {
		s.logger.Info("smtp not configured, password reset link not emailed",
			slog.String("email", userEmail),
			slog.String("link", resetLink))
		return nil
	}

	body := fmt.Sprintf(
		"<p>Для сброса пароля перейдите по ссылке:</p><p><a href=%q>%s</a></p>",
		resetLink, resetLink)
	return s.send(userEmail, "Password reset", body)
}

func (s *EmailService) send(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
