package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/avyhea/avyhea-backend/pkg/logger"
)

var (
	ErrMissingConfig = errors.New("mailer: incomplete SMTP configuration")
	ErrSendFailed    = errors.New("mailer: failed to send email")
)

// Config holds SMTP settings
type Config struct {
	Host     string
	Port     string
	From     string
	Password string
	DevMode  bool // log instead of sending
}

// Validate checks that the configuration is complete enough to send mail
func (c Config) Validate() error {
	if c.DevMode {
		return nil
	}
	if c.Host == "" || c.Port == "" || c.From == "" {
		return ErrMissingConfig
	}
	return nil
}

// Client sends transactional email over SMTP
type Client struct {
	config Config
}

// NewClient creates a mail client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{config: config}, nil
}

// Send delivers a single HTML email. The context bounds the SMTP
// exchange; a cancelled or expired context aborts the send.
func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	if c.config.DevMode {
		logger.Info("dev mode: skipping email send", map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return nil
	}

	msg := buildMessage(c.config.From, to, subject, htmlBody)
	addr := c.config.Host + ":" + c.config.Port

	var auth smtp.Auth
	if c.config.Password != "" {
		auth = smtp.PlainAuth("", c.config.From, c.config.Password, c.config.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, c.config.From, []string{to}, msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrSendFailed, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSendFailed, err)
		}
		return nil
	}
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
