package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/config"
)

func TestResetLink(t *testing.T) {
	assert.Equal(t, "https://shop.example/reset?token=abc.def", ResetLink("https://shop.example/reset", "abc.def"))
	assert.Equal(t, "https://shop.example/reset?lang=de&token=a%2Bb", ResetLink("https://shop.example/reset?lang=de", "a+b"))
}

func TestSMTPSenderSendsResetLink(t *testing.T) {
	cfg := config.SMTPConfig{Host: "mail.example", Port: 2525, User: "mailer", Password: "pw", From: "shop@example.com"}
	s := NewSMTPSender(cfg, "https://shop.example/reset")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	err := s.SendPasswordReset(context.Background(), PasswordResetMessage{
		To:        "ann@example.com",
		Token:     "id.secret",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	})
	require.NoError(t, err)

	assert.Equal(t, "mail.example:2525", gotAddr)
	assert.Equal(t, "shop@example.com", gotFrom)
	assert.Equal(t, []string{"ann@example.com"}, gotTo)

	body := string(gotMsg)
	assert.True(t, strings.Contains(body, "To: ann@example.com\r\n"))
	assert.True(t, strings.Contains(body, "within 15 minutes"))
	assert.True(t, strings.Contains(body, "https://shop.example/reset?token=id.secret"))
}

func TestSMTPSenderWrapsDeliveryErrors(t *testing.T) {
	s := NewSMTPSender(config.SMTPConfig{Host: "mail.example", Port: 25}, "https://shop.example/reset")
	boom := errors.New("connection refused")
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := s.SendPasswordReset(context.Background(), PasswordResetMessage{To: "a@example.com", Token: "t"})
	assert.ErrorIs(t, err, boom)
}

func TestNewSenderPicksTransport(t *testing.T) {
	cfg := &config.Config{}
	_, isLog := NewSender(cfg).(*LogSender)
	assert.True(t, isLog)

	cfg.SMTP.Host = "mail.example"
	_, isSMTP := NewSender(cfg).(*SMTPSender)
	assert.True(t, isSMTP)
}
