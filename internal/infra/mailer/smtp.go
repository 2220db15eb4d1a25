package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"

	dmailer "staff_record_notifier/internal/domain/mailer"
)

// SMTPClient delivers messages through an SMTP relay. A shared rate limiter
// caps the aggregate send rate across all callers so the relay never sees
// bursts above its tolerance, independent of the dispatcher's own pacing.
type SMTPClient struct {
	addr    string
	from    string
	auth    smtp.Auth
	limiter *rate.Limiter

	// send is swappable in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type SMTPConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	MaxPerSecond float64 // <= 0 disables the ceiling
}

func NewSMTPClient(cfg SMTPConfig) *SMTPClient {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	limit := rate.Limit(cfg.MaxPerSecond)
	if cfg.MaxPerSecond <= 0 {
		limit = rate.Inf
	}
	return &SMTPClient{
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:    cfg.From,
		auth:    auth,
		limiter: rate.NewLimiter(limit, 1),
		send:    smtp.SendMail,
	}
}

func (c *SMTPClient) Send(ctx context.Context, msg dmailer.Message) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.send(c.addr, c.auth, c.from, msg.To, buildPayload(c.from, msg)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func buildPayload(from string, msg dmailer.Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
