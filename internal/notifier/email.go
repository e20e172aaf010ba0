package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/amishk599/jobdigest/internal/model"
)

const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 465
)

// sendFunc delivers an already composed RFC 5322 message.
type sendFunc func(ctx context.Context, host string, port int, auth smtp.Auth, from string, to []string, msg []byte) error

// Ensure EmailNotifier implements model.Notifier.
var _ model.Notifier = (*EmailNotifier)(nil)

// EmailNotifier mails the digest as plain text over implicit-TLS SMTP.
type EmailNotifier struct {
	host     string
	port     int
	from     string
	password string
	to       []string
	logger   *slog.Logger

	send sendFunc
	now  func() time.Time
}

// NewEmailNotifier returns a notifier authenticating as from. With no
// recipients the digest is sent to from itself.
func NewEmailNotifier(host string, port int, from, password string, to []string, logger *slog.Logger) *EmailNotifier {
	if host == "" {
		host = DefaultSMTPHost
	}
	if port <= 0 {
		port = DefaultSMTPPort
	}
	if len(to) == 0 {
		to = []string{from}
	}
	return &EmailNotifier{
		host:     host,
		port:     port,
		from:     from,
		password: password,
		to:       to,
		logger:   logger,
		send:     sendTLS,
		now:      time.Now,
	}
}

// Notify composes and sends one message for the digest.
func (n *EmailNotifier) Notify(ctx context.Context, d model.Digest) error {
	msg, err := n.compose(d)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", n.from, n.password, n.host)
	if err := n.send(ctx, n.host, n.port, auth, n.from, n.to, msg); err != nil {
		return fmt.Errorf("sending digest email via %s: %w", n.host, err)
	}
	n.logger.Info("digest email sent", "subject", d.Subject, "recipients", len(n.to))
	return nil
}

func (n *EmailNotifier) compose(d model.Digest) ([]byte, error) {
	var h mail.Header
	h.SetDate(n.now())
	h.SetSubject(d.Subject)
	h.SetAddressList("From", []*mail.Address{{Address: n.from}})

	to := make([]*mail.Address, 0, len(n.to))
	for _, addr := range n.to {
		to = append(to, &mail.Address{Address: addr})
	}
	h.SetAddressList("To", to)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("composing digest email: %w", err)
	}
	if _, err := io.WriteString(w, d.Body); err != nil {
		return nil, fmt.Errorf("composing digest email: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("composing digest email: %w", err)
	}
	return buf.Bytes(), nil
}

func sendTLS(ctx context.Context, host string, port int, auth smtp.Auth, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp DATA close: %w", err)
	}
	return c.Quit()
}
