package notifier

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/teon-auth-api/shared/mailer"
)

// VerificationMessage is what a Notifier needs to prompt a user to verify their email.
type VerificationMessage struct {
	AccountID string
	To        string
	FirstName string
	Link      string
	ExpiresIn time.Duration
}

// Notifier delivers verification messages to a destination address.
type Notifier interface {
	SendVerification(ctx context.Context, msg VerificationMessage) error
}

// MailNotifier sends verification messages as HTML email over SMTP.
type MailNotifier struct {
	mailer *mailer.Mailer
}

// NewMailNotifier creates a new MailNotifier.
func NewMailNotifier(m *mailer.Mailer) *MailNotifier {
	return &MailNotifier{mailer: m}
}

// SendVerification sends the verification email. SMTP delivery cannot be interrupted
// once started, so ctx is only checked before dialing.
func (n *MailNotifier) SendVerification(ctx context.Context, msg VerificationMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	htmlBody, textBody := renderVerificationEmail(msg)

	return n.mailer.SendHTML([]string{msg.To}, "Verify your email address", htmlBody, textBody)
}

// LogNotifier writes verification links to the log instead of sending them.
// It is used when no SMTP server is configured.
type LogNotifier struct {
	logger *zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendVerification(_ context.Context, msg VerificationMessage) error {
	n.logger.Warn().
		Str("account_id", msg.AccountID).
		Str("to", msg.To).
		Str("link", msg.Link).
		Msg("smtp disabled, verification link logged instead of sent")
	return nil
}

func renderVerificationEmail(msg VerificationMessage) (string, string) {
	name := msg.FirstName
	if name == "" {
		name = "there"
	}

	link := html.EscapeString(msg.Link)
	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Thanks for signing up. Please confirm your email address by clicking the link below:</p>

		<p><a href="%s">%s</a></p>

		<p>This link will expire in %s.</p>
		<p>If you did not create an account, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>Teon Suites Team</p>
	`, html.EscapeString(name), link, link, msg.ExpiresIn)

	textBody := fmt.Sprintf(
		"Hi %s,\n\nConfirm your email address by opening this link:\n%s\n\nThis link will expire in %s.\n",
		name, msg.Link, msg.ExpiresIn,
	)

	return htmlBody, textBody
}
