// Package mail sends outbound notification mail: verification and reset
// links and relayed contact messages.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
)

// Message is a plain-text mail. ReplyTo is optional.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the SMTP mailer when a host is configured and the log mailer
// otherwise.
func New(cfg *config.Config, log logging.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg)
}

const defaultSendTimeout = 30 * time.Second

type SMTPMailer struct {
	addr     string
	host     string
	username string
	password string
	sender   string
	timeout  time.Duration
	dial     func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	d := &net.Dialer{Timeout: defaultSendTimeout}
	return &SMTPMailer{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		host:     cfg.SMTPHost,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		sender:   cfg.MailSender,
		timeout:  defaultSendTimeout,
		dial:     d.DialContext,
	}
}

// Send delivers msg within the mailer timeout or until ctx is done,
// whichever comes first.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("%w: no recipients", common.ErrDeliveryFailure)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)
	}
	return nil
}

func (m *SMTPMailer) send(ctx context.Context, msg Message) error {
	conn, err := m.dial(ctx, "tcp", m.addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if m.username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(m.sender); err != nil {
		return err
	}
	for _, rcpt := range msg.To {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(m.sender, msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", sanitizeHeader(msg.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// sanitizeHeader drops line breaks so user input cannot inject headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// LogMailer writes mail to the log instead of sending it. Used in
// development when no SMTP host is configured.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info(ctx, "mail not sent (no SMTP host configured)",
		"to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
