package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/smtp"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

// sendMail is a test seam.
var sendMail = smtp.SendMail

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// EmailChannel delivers plain-text mail over SMTP.
type EmailChannel struct {
	cfg EmailConfig
}

func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Accepts(acct *models.Account) bool { return acct.Email != "" }

// Send runs the SMTP exchange in a goroutine; net/smtp has no context
// support, so a cancelled ctx abandons the exchange.
func (c *EmailChannel) Send(ctx context.Context, acct *models.Account, msg Message) error {
	if acct.Email == "" {
		return ErrNoAddress
	}

	from := c.cfg.From
	if c.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", c.cfg.FromName), c.cfg.From)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", acct.Email)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.Body)

	var auth smtp.Auth
	if c.cfg.User != "" && c.cfg.Password != "" {
		auth = smtp.PlainAuth("", c.cfg.User, c.cfg.Password, c.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	done := make(chan error, 1)
	go func() {
		done <- sendMail(addr, auth, c.cfg.From, []string{acct.Email}, buf.Bytes())
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
