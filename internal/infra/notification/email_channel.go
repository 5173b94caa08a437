package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"medsync/config"
	"medsync/internal/domain/entity"
	"medsync/internal/domain/service"

	"github.com/pkg/errors"
)

// sendMailFunc matches smtp.SendMail; injectable in tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// emailChannel delivers notifications over SMTP to the configured family
// contact addresses. Fire-and-forget like push.
type emailChannel struct {
	addr     string
	from     string
	to       []string
	auth     smtp.Auth
	sendMail sendMailFunc
}

// NewEmailChannel creates the SMTP email channel adapter.
func NewEmailChannel(cfg *config.SMTPConfig) (service.ChannelAdapter, error) {
	if cfg.Host == "" || len(cfg.To) == 0 {
		return nil, errors.New("smtp host and at least one recipient must be provided")
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &emailChannel{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:     cfg.From,
		to:       cfg.To,
		auth:     auth,
		sendMail: smtp.SendMail,
	}, nil
}

// Name identifies the channel in routing tables and dispatch results.
func (ch *emailChannel) Name() entity.ChannelName {
	return entity.ChannelEmail
}

// SupportsAck reports false: email delivery stops at sent.
func (ch *emailChannel) SupportsAck() bool {
	return false
}

// Deliver sends one notification email. smtp.SendMail has no context support,
// so the call runs in a goroutine and the dispatcher's per-call timeout wins.
func (ch *emailChannel) Deliver(ctx context.Context, message *entity.NotificationMessage) error {
	msg := ch.compose(message)

	done := make(chan error, 1)
	go func() {
		done <- ch.sendMail(ch.addr, ch.auth, ch.from, ch.to, msg)
	}()

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "email delivery cancelled")
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "failed to send email")
		}

		return nil
	}
}

func (ch *emailChannel) compose(message *entity.NotificationMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", ch.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(ch.to, ", "))
	fmt.Fprintf(&b, "Subject: [%s] %s\r\n", strings.ToUpper(message.Priority.String()), message.Title())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(message.Body())
	fmt.Fprintf(&b, "\r\n\r\nMessage ID: %s\r\n", message.ID)

	return []byte(b.String())
}
