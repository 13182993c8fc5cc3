package infra

import (
	"errors"
	"fmt"
	"net/smtp"

	"ewarranty/internal/config"

	"github.com/jordan-wright/email"
)

// ErrMailerDisabled is returned by Send when no SMTP host is configured.
var ErrMailerDisabled = errors.New("mailer: smtp not configured")

// Message is one outgoing email. Attachment is an optional file path.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment string
}

// Mailer sends plain-text email through the configured SMTP relay.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

func (m *Mailer) Send(msg Message) error {
	if !m.Enabled() {
		return ErrMailerDisabled
	}
	if msg.To == "" {
		return errors.New("mailer: empty recipient")
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)

	if msg.Attachment != "" {
		if _, err := e.AttachFile(msg.Attachment); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", msg.Attachment, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
