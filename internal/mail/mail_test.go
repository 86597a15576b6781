package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinks(t *testing.T) {
	l := Links{ClientURL: "https://app.example.com"}

	assert.Equal(t, "https://app.example.com/verify/email?token=at_abc.def", l.VerifyEmail("at_abc.def"))
	assert.Equal(t, "https://app.example.com/password/reset?token=a%2Bb", l.PasswordReset("a+b"))
}

func TestRenderer(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	t.Run("verify email", func(t *testing.T) {
		subject, body, err := r.Render(VerifyEmailMessage("a@example.com", "Alice", "https://x/verify/email?token=t"))
		require.NoError(t, err)
		assert.Equal(t, "Verify your email address", subject)
		assert.Contains(t, body, "Hi Alice,")
		assert.Contains(t, body, `href="https://x/verify/email?token=t"`)
	})

	t.Run("password reset", func(t *testing.T) {
		subject, body, err := r.Render(PasswordResetMessage("a@example.com", "Alice", "https://x/password/reset?token=t"))
		require.NoError(t, err)
		assert.Equal(t, "Reset your password", subject)
		assert.Contains(t, body, "https://x/password/reset?token=t")
	})

	t.Run("escapes names", func(t *testing.T) {
		_, body, err := r.Render(VerifyEmailMessage("a@example.com", "<script>", "https://x"))
		require.NoError(t, err)
		assert.NotContains(t, body, "<script>")
	})

	t.Run("unknown template", func(t *testing.T) {
		_, _, err := r.Render(Message{Template: "welcome"})
		assert.Error(t, err)
	})
}

func TestSMTPSender(t *testing.T) {
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)

	s := NewSMTPSender(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "Localspace <no-reply@example.com>",
	})
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, string(msg)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "bob@example.com", "Hello", "<p>hi</p>"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"bob@example.com"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: Localspace <no-reply@example.com>\r\n"))
	assert.Contains(t, gotMsg, "Subject: Hello\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/html")
	assert.Contains(t, gotMsg, "\r\n\r\n<p>hi</p>")

	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	err := s.Send(context.Background(), "bob@example.com", "Hello", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bob@example.com")
}

func TestEnvelopeAddress(t *testing.T) {
	assert.Equal(t, "a@b.c", envelopeAddress("Name <a@b.c>"))
	assert.Equal(t, "a@b.c", envelopeAddress("a@b.c"))
}

type recordingSender struct {
	to, subject, body string
}

func (s *recordingSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.to, s.subject, s.body = to, subject, htmlBody
	return nil
}

func TestInline(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	sender := &recordingSender{}
	m := NewInline(r, sender)

	require.NoError(t, m.Queue(context.Background(), PasswordResetMessage("bob@example.com", "Bob", "https://x/password/reset?token=t")))
	assert.Equal(t, "bob@example.com", sender.to)
	assert.Equal(t, "Reset your password", sender.subject)
	assert.Contains(t, sender.body, "Bob")

	assert.Error(t, m.Queue(context.Background(), Message{Template: "welcome"}))
}
