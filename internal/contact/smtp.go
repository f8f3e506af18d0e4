package contact

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// SMTPRelay delivers form contents as a plain-text email. The destination
// key is the recipient mailbox.
type SMTPRelay struct {
	cfg SMTPConfig
}

// NewSMTPRelay creates a relay. It fails if SMTP is not configured.
func NewSMTPRelay(cfg SMTPConfig) (*SMTPRelay, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("SMTP not configured")
	}
	return &SMTPRelay{cfg: cfg}, nil
}

// SubmitForm emails fields to destinationKey. Address problems are reported
// as a rejected response; delivery failures as an error.
func (r *SMTPRelay) SubmitForm(ctx context.Context, fields Fields, destinationKey string) (Response, error) {
	msg := gomail.NewMsg()
	if err := msg.From(r.cfg.From); err != nil {
		return Response{}, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(destinationKey); err != nil {
		return Response{Success: false, Message: "Invalid destination address."}, nil
	}
	if replyTo := fields.Get("email"); replyTo != "" {
		if err := msg.ReplyTo(replyTo); err != nil {
			return Response{Success: false, Message: "Invalid reply-to address."}, nil
		}
	}
	msg.Subject(Subject(fields))
	msg.SetBodyString(gomail.TypeTextPlain, FormatMessage(fields))

	port, err := strconv.Atoi(r.cfg.Port)
	if err != nil || port == 0 {
		port = 587
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTimeout(15 * time.Second),
	}
	if port == 465 {
		opts = append(opts, gomail.WithSSLPort(false))
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSOpportunistic))
	}
	if r.cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(r.cfg.User),
			gomail.WithPassword(r.cfg.Pass),
		)
	}

	client, err := gomail.NewClient(r.cfg.Host, opts...)
	if err != nil {
		return Response{}, fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return Response{}, fmt.Errorf("smtp send: %w", err)
	}

	return Response{Success: true, Message: "Email sent."}, nil
}

// Subject builds the email subject from the form's subject or name field.
func Subject(fields Fields) string {
	if s := fields.Get("subject"); s != "" {
		return "Website enquiry: " + s
	}
	if n := fields.Get("name"); n != "" {
		return "Website enquiry from " + n
	}
	return "Website enquiry"
}

// FormatMessage builds a plain-text body listing every field.
func FormatMessage(fields Fields) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "New enquiry from the website contact form:\n\n")
	for _, f := range fields {
		if f.Name == "message" {
			continue
		}
		fmt.Fprintf(&buf, "%s: %s\n", f.Name, f.Value)
	}

	if msg := fields.Get("message"); msg != "" {
		fmt.Fprintf(&buf, "\n%s\n", msg)
	}

	return buf.String()
}
