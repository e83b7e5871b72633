package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront-api/internal/config"
	"storefront-api/internal/logger"
)

// SMTPSender mails the reset link.
type SMTPSender struct {
	cfg         config.SMTPConfig
	linkBaseURL string
	send        func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg config.SMTPConfig, linkBaseURL string) *SMTPSender {
	return &SMTPSender{
		cfg:         cfg,
		linkBaseURL: linkBaseURL,
		send:        smtp.SendMail,
	}
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(addr, auth, s.cfg.From, []string{msg.To}, s.compose(msg)); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	logger.FromContext(ctx).Info("Password reset email sent",
		zap.String("email", msg.To),
		zap.String("event", "password_reset_email_sent"),
	)
	return nil
}

func (s *SMTPSender) compose(msg PasswordResetMessage) []byte {
	minutes := int(time.Until(msg.ExpiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	b.WriteString("Subject: Reset your password\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("We received a request to reset your password.\r\n\r\n")
	fmt.Fprintf(&b, "Open this link within %d minutes to choose a new one:\r\n%s\r\n\r\n", minutes, ResetLink(s.linkBaseURL, msg.Token))
	b.WriteString("If you did not ask for this, you can ignore this email.\r\n")
	return []byte(b.String())
}

// NewSender picks SMTP delivery when a mail host is configured.
func NewSender(cfg *config.Config) Sender {
	if cfg.SMTP.Host != "" {
		return NewSMTPSender(cfg.SMTP, cfg.PasswordReset.LinkBaseURL)
	}
	return NewLogSender(cfg.PasswordReset.LinkBaseURL)
}
