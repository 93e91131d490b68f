package services

import (
	"encoding/base64"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailAttachment is a binary attachment, typically a PDF invoice.
type MailAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MailMessage is one outbound email.
type MailMessage struct {
	To          string           `json:"to"`
	Subject     string           `json:"subject"`
	Body        string           `json:"body"`
	Attachments []MailAttachment `json:"attachments,omitempty"`
}

// Mailer sends a single email synchronously.
type Mailer interface {
	Send(msg MailMessage) error
}

// SendGridMailer delivers mail through SendGrid.
type SendGridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridMailer constructs a SendGridMailer.
func NewSendGridMailer(apiKey, from, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

// Send delivers the message through SendGrid.
func (m *SendGridMailer) Send(msg MailMessage) error {
	from := sgmail.NewEmail(m.fromName, m.from)
	to := sgmail.NewEmail("", msg.To)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	for _, a := range msg.Attachments {
		attachment := sgmail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(a.Data))
		attachment.SetType(a.ContentType)
		attachment.SetFilename(a.Filename)
		attachment.SetDisposition("attachment")
		email.AddAttachment(attachment)
	}

	resp, err := m.client.Send(email)
	if err != nil {
		return &ExternalServiceError{Service: "mail", Err: err}
	}
	if resp.StatusCode >= 300 {
		return &ExternalServiceError{Service: "mail", Err: fmt.Errorf("sendgrid returned status %d", resp.StatusCode)}
	}

	return nil
}

// LogMailer writes mail to the log. Used when no provider is configured.
type LogMailer struct{}

// Send logs the message instead of delivering it.
func (LogMailer) Send(msg MailMessage) error {
	log.Printf("[Mail] to=%s subject=%q attachments=%d (log-only transport)",
		msg.To, msg.Subject, len(msg.Attachments))
	return nil
}
