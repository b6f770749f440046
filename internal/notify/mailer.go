// Package notify delivers outbound messages: e-mail over an SMTP relay and
// WhatsApp text through a session object.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"
)

// ErrMissingFields is returned for an Email lacking a required field.
var ErrMissingFields = errors.New("missing required fields (from, to, subject, message)")

// DefaultRelayHosts are tried in order.
var DefaultRelayHosts = []string{"smtp-relay.sendinblue.com", "smtp-relay.brevo.com"}

const DefaultSMTPPort = 587

// Email is one outbound message. Message is rendered as a single HTML
// paragraph.
type Email struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (e Email) Validate() error {
	if strings.TrimSpace(e.From) == "" || strings.TrimSpace(e.To) == "" ||
		strings.TrimSpace(e.Subject) == "" || strings.TrimSpace(e.Message) == "" {
		return ErrMissingFields
	}
	return nil
}

// Receipt reports a delivered message.
type Receipt struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Host      string `json:"host"`
}

// Sender hands a message to one relay host.
type Sender interface {
	Send(ctx context.Context, host string, msg *mail.Msg) error
}

// SMTPConfig holds relay credentials.
type SMTPConfig struct {
	Hosts    []string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

type smtpSender struct {
	cfg SMTPConfig
}

func (s smtpSender) Send(ctx context.Context, host string, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// Mailer sends through the first relay host that accepts the message.
type Mailer struct {
	hosts  []string
	sender Sender
}

// NewMailer builds a Mailer backed by SMTP.
func NewMailer(cfg SMTPConfig) *Mailer {
	if len(cfg.Hosts) == 0 {
		cfg.Hosts = DefaultRelayHosts
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return NewMailerWithSender(cfg.Hosts, smtpSender{cfg: cfg})
}

// NewMailerWithSender uses s for delivery. Used by tests.
func NewMailerWithSender(hosts []string, s Sender) *Mailer {
	return &Mailer{hosts: hosts, sender: s}
}

// Send validates e and tries each host in order. The error of the last host
// is returned when all of them fail.
func (m *Mailer) Send(ctx context.Context, e Email) (Receipt, error) {
	if err := e.Validate(); err != nil {
		return Receipt{}, err
	}
	if len(m.hosts) == 0 {
		return Receipt{}, errors.New("no relay hosts configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(e.From); err != nil {
		return Receipt{}, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(e.To); err != nil {
		return Receipt{}, fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextHTML, "<p>"+html.EscapeString(e.Message)+"</p>")
	msg.SetMessageIDWithValue(uuid.NewString() + "@lrsystem")

	var last error
	for _, host := range m.hosts {
		if err := m.sender.Send(ctx, host, msg); err != nil {
			log.Warn().Err(err).Str("host", host).Msg("mail relay failed")
			last = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		id := msg.GetMessageID()
		log.Info().Str("host", host).Str("message_id", id).Msg("mail sent")
		return Receipt{Success: true, MessageID: id, Host: host}, nil
	}
	return Receipt{}, fmt.Errorf("send mail: %w", last)
}
