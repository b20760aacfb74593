// Package notify delivers failure alerts. Delivery is fire-and-forget:
// failures are logged and never returned to the caller.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Notifier sends a fire-and-forget alert.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string)
}

// SMTPConfig configures mail delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Addr returns host:port.
func (c SMTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends plain-text mail. smtp.SendMail upgrades to STARTTLS
// when the server offers it.
type SMTPNotifier struct {
	cfg    SMTPConfig
	send   SendFunc
	logger *slog.Logger
	now    func() time.Time
}

// NewSMTPNotifier creates a notifier. A nil send uses smtp.SendMail.
func NewSMTPNotifier(cfg SMTPConfig, send SendFunc, logger *slog.Logger) *SMTPNotifier {
	if send == nil {
		send = smtp.SendMail
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SMTPNotifier{cfg: cfg, send: send, logger: logger, now: time.Now}
}

var _ Notifier = (*SMTPNotifier)(nil)

// Notify sends the message. Errors are logged.
func (n *SMTPNotifier) Notify(ctx context.Context, recipient, subject, body string) {
	if recipient == "" {
		n.logger.Warn("notification skipped, no recipient configured", "subject", subject)
		return
	}
	if err := ctx.Err(); err != nil {
		n.logger.Warn("notification skipped", "subject", subject, "error", err)
		return
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := BuildMessage(n.cfg.From, recipient, subject, body, n.now())
	if err := n.send(n.cfg.Addr(), auth, n.cfg.From, []string{recipient}, msg); err != nil {
		n.logger.Error("failed to send notification", "recipient", recipient, "subject", subject, "error", err)
		return
	}
	n.logger.Info("notification sent", "recipient", recipient, "subject", subject)
}

// BuildMessage renders an RFC 5322 plain-text message.
func BuildMessage(from, to, subject, body string, date time.Time) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", sanitizeHeader(subject))
	fmt.Fprintf(&sb, "Date: %s\r\n", date.Format(time.RFC1123Z))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// LogNotifier only logs alerts. It is used when SMTP is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogNotifier{logger: logger}
}

var _ Notifier = (*LogNotifier)(nil)

// Notify logs the alert at warn level.
func (n *LogNotifier) Notify(_ context.Context, recipient, subject, body string) {
	n.logger.Warn("notification", "recipient", recipient, "subject", subject, "body", body)
}
