package mail

import (
	"context"
	"log/slog"
	"net/smtp"
	"strings"

	"travel-booking/internal/pkg/config"
	"travel-booking/internal/pkg/errs"
	"travel-booking/internal/usecase/notify"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	addr     string
	auth     smtp.Auth
	fromName string
	fromAddr string
	send     sendFunc
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		addr:     cfg.SMTPAddr(),
		auth:     smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost),
		fromName: cfg.FromName,
		fromAddr: cfg.FromAddress,
		send:     smtp.SendMail,
	}
}

// Send gives up waiting when ctx is done; net/smtp itself cannot be interrupted.
func (m *SMTPMailer) Send(ctx context.Context, msg notify.Message) error {
	to := sanitizeHeader(msg.To.Email)
	if to == "" {
		return errs.Wrap(notify.ErrNoRecipient, "smtp send")
	}
	raw := m.compose(msg)

	done := make(chan error, 1)
	go func() {
		done <- m.send(m.addr, m.auth, m.fromAddr, []string{to}, raw)
	}()

	select {
	case err := <-done:
		if err != nil {
			return errs.Wrapf(err, "smtp send to %s", to)
		}
		return nil
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "smtp send aborted")
	}
}

func (m *SMTPMailer) compose(msg notify.Message) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + address(m.fromName, m.fromAddr) + "\r\n")
	sb.WriteString("To: " + address(msg.To.Name, msg.To.Email) + "\r\n")
	sb.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(sb.String())
}

// address renders a mailbox header value, dropping the display name when it is empty.
func address(name, email string) string {
	name, email = sanitizeHeader(name), sanitizeHeader(email)
	if name == "" {
		return email
	}
	return name + " <" + email + ">"
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}

// LogMailer records messages instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg notify.Message) error {
	if strings.TrimSpace(msg.To.Email) == "" {
		return errs.Wrap(notify.ErrNoRecipient, "log mailer")
	}
	m.logger.InfoContext(ctx, "email suppressed, smtp not configured",
		"to", msg.To.Email,
		"subject", msg.Subject)
	return nil
}

// NewMailer picks SMTP when credentials are configured.
func NewMailer(cfg config.MailConfig, logger *slog.Logger) notify.Mailer {
	if cfg.SMTPEnabled() {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(logger)
}
