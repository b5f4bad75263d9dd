package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"restaurantgo/internal/config"
)

// Sender delivers one plain-text message.
type Sender interface {
	Send(ctx context.Context, subject, message, recipient string) error
}

type SMTPSender struct {
	cfg  config.MailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, subject, message, recipient string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if recipient == "" {
		return fmt.Errorf("mail: empty recipient")
	}

	var b strings.Builder
	b.WriteString("MIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n")
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.Sender)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n\r\n", subject)
	b.WriteString(message)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.Sender, []string{recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("mail: send to %s: %w", recipient, err)
	}
	return nil
}
