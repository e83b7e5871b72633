package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"storefront-api/internal/logger"
)

// PasswordResetMessage is what a user needs to finish a password reset.
type PasswordResetMessage struct {
	To        string
	Token     string
	ExpiresAt time.Time
}

// Sender delivers password reset secrets out of band.
type Sender interface {
	SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error
}

// ResetLink builds the link a user follows to reset their password.
func ResetLink(baseURL, token string) string {
	u, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		return fmt.Sprintf("%s?token=%s", baseURL, url.QueryEscape(token))
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// LogSender hands the reset link to operators through the log. It is the
// delivery channel when no mail server is configured.
type LogSender struct {
	linkBaseURL string
}

func NewLogSender(linkBaseURL string) *LogSender {
	return &LogSender{linkBaseURL: linkBaseURL}
}

func (s *LogSender) SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error {
	logger.FromContext(ctx).Info("Password reset link issued",
		zap.String("email", msg.To),
		zap.String("reset_link", ResetLink(s.linkBaseURL, msg.Token)),
		zap.Time("expires_at", msg.ExpiresAt),
		zap.String("event", "password_reset_link_issued"),
	)
	return nil
}
