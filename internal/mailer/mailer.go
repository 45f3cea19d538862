package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	mail "gopkg.in/mail.v2"
)

const (
	FromName              = "WorthIt"
	maxRetries            = 3
	ClaimApprovedTemplate = "claim_approved.tmpl"
	ClaimRejectedTemplate = "claim_rejected.tmpl"
)

//go:embed "templates"
var FS embed.FS

// Client sends a templated notification email. Callers treat delivery
// as fire-and-forget; failures are logged, never surfaced to requests.
type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}

type SMTPMailer struct {
	fromEmail string
	dialer    *mail.Dialer
}

func NewSMTP(host string, port int, username, password, fromEmail string) *SMTPMailer {
	dialer := mail.NewDialer(host, port, username, password)
	return &SMTPMailer{
		fromEmail: fromEmail,
		dialer:    dialer,
	}
}

func (m *SMTPMailer) Send(templateFile, username, email string, data any) (int, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return -1, fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return -1, err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return -1, err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", FromName, m.fromEmail))
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/html", body.String())

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := m.dialer.DialAndSend(msg); err != nil {
			lastErr = err
			time.Sleep(time.Second * time.Duration(i+1))
			continue
		}
		return 200, nil
	}

	return -1, fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
