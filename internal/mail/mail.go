// Package mail composes transactional emails and delivers them. Producers
// hand a Message to a Mailer; the worker renders and sends it.
package mail

import (
	"context"
	"net/url"
)

// Template names. Each maps to templates/<name>.html.
const (
	TemplateVerifyEmail   = "verify_email"
	TemplatePasswordReset = "password_reset"
)

// Message is everything needed to render and send one email. It is what
// travels through the queue.
type Message struct {
	Template string            `json:"template"`
	To       string            `json:"to"`
	Vars     map[string]string `json:"vars"`
}

// Mailer queues a message for asynchronous delivery.
type Mailer interface {
	Queue(ctx context.Context, msg Message) error
}

// Links builds the client-side URLs embedded in emails.
type Links struct {
	ClientURL string
}

func (l Links) VerifyEmail(token string) string {
	return l.build("/verify/email", token)
}

func (l Links) PasswordReset(token string) string {
	return l.build("/password/reset", token)
}

func (l Links) build(path, token string) string {
	q := url.Values{}
	q.Set("token", token)
	return l.ClientURL + path + "?" + q.Encode()
}

// VerifyEmailMessage is sent after sign-up and on resend.
func VerifyEmailMessage(to, name, link string) Message {
	return Message{
		Template: TemplateVerifyEmail,
		To:       to,
		Vars:     map[string]string{"name": name, "url": link},
	}
}

func PasswordResetMessage(to, name, link string) Message {
	return Message{
		Template: TemplatePasswordReset,
		To:       to,
		Vars:     map[string]string{"name": name, "url": link},
	}
}
