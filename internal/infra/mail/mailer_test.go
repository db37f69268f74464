//go:build unit

package mail

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"travel-booking/internal/pkg/config"
	"travel-booking/internal/usecase/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMailConfig() config.MailConfig {
	return config.MailConfig{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "2525",
		SMTPUsername: "mailer",
		SMTPPassword: "secret",
		FromName:     "Travel Marketplace",
		FromAddress:  "no-reply@example.com",
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer(testMailConfig())

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), notify.Message{
		To:      notify.Recipient{Name: "Ada Guest", Email: "guest@example.com"},
		Subject: "Booking confirmed\r\nBcc: attacker@example.com",
		Body:    "line one\nline two",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"guest@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "From: Travel Marketplace <no-reply@example.com>\r\n")
	assert.Contains(t, gotMsg, "To: Ada Guest <guest@example.com>\r\n")
	assert.Contains(t, gotMsg, "Subject: Booking confirmed  Bcc: attacker@example.com\r\n")
	assert.NotContains(t, gotMsg, "\r\nBcc:")
	assert.True(t, strings.HasSuffix(gotMsg, "line one\r\nline two"))
}

func TestSMTPMailer_SendRejectsEmptyRecipient(t *testing.T) {
	m := NewSMTPMailer(testMailConfig())
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	err := m.Send(context.Background(), notify.Message{To: notify.Recipient{Name: "Nobody", Email: "  "}})
	assert.ErrorIs(t, err, notify.ErrNoRecipient)
}

func TestSMTPMailer_SendHonoursContext(t *testing.T) {
	m := NewSMTPMailer(testMailConfig())
	release := make(chan struct{})
	defer close(release)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.Send(ctx, notify.Message{To: notify.Recipient{Email: "guest@example.com"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewMailer(t *testing.T) {
	_, isSMTP := NewMailer(testMailConfig(), nil).(*SMTPMailer)
	assert.True(t, isSMTP)

	_, isLog := NewMailer(config.MailConfig{}, nil).(*LogMailer)
	assert.True(t, isLog)
}

func TestLogMailer_Send(t *testing.T) {
	m := NewLogMailer(nil)
	assert.NoError(t, m.Send(context.Background(), notify.Message{To: notify.Recipient{Name: "Host", Email: "vendor@example.com"}, Subject: "New booking"}))
	assert.ErrorIs(t, m.Send(context.Background(), notify.Message{}), notify.ErrNoRecipient)
}

func TestSMTPMailer_ComposeWithoutDisplayName(t *testing.T) {
	m := NewSMTPMailer(testMailConfig())
	var gotMsg string
	m.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	}

	require.NoError(t, m.Send(context.Background(), notify.Message{
		To:      notify.Recipient{Email: "ops@example.com"},
		Subject: "New booking",
	}))
	assert.Contains(t, gotMsg, "To: ops@example.com\r\n")
}
