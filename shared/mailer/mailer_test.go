package mailer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{Host: "smtp.local", Port: 587, From: "no-reply@teon.io"}},
		{name: "missing host", cfg: Config{Port: 587, From: "a@b.c"}, wantErr: "SMTP_HOST"},
		{name: "missing port", cfg: Config{Host: "smtp.local", From: "a@b.c"}, wantErr: "SMTP_PORT"},
		{name: "missing from", cfg: Config{Host: "smtp.local", Port: 25}, wantErr: "SMTP_FROM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMailer_SendWithoutRecipients(t *testing.T) {
	m, err := NewMailer(Config{Host: "smtp.local", Port: 25, From: "no-reply@teon.io"})
	require.NoError(t, err)

	assert.ErrorIs(t, m.Send(Email{Subject: "hi"}), ErrNoRecipients)
}

func TestMailer_NewMessage(t *testing.T) {
	m, err := NewMailer(Config{Host: "smtp.local", Port: 25, From: "no-reply@teon.io"})
	require.NoError(t, err)

	msg := m.newMessage(Email{
		To:       []string{"a@x.com"},
		Subject:  "Verify your email",
		Body:     "plain",
		HTMLBody: "<p>html</p>",
	})

	assert.Equal(t, []string{"no-reply@teon.io"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"a@x.com"}, msg.GetHeader("To"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
	assert.Contains(t, buf.String(), "text/plain")
}
