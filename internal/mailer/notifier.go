// Package mailer delivers rendered certificates over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log"
	"time"

	"quiz-event-service/internal/domain"
	"github.com/wneessen/go-mail"
)

const (
	Subject        = "🎓 Your Participation Certificate"
	AttachmentName = "certificate.png"
)

// Renderer produces the certificate image for a participant and returns its path.
type Renderer interface {
	Render(name string) (string, error)
}

// Sender opens an SMTP session and sends messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPOptions configures the outbound mail account.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// NewSMTPSender builds an implicit-TLS client that authenticates with PLAIN.
func NewSMTPSender(opts SMTPOptions) (*mail.Client, error) {
	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(opts.Username),
		mail.WithPassword(opts.Password),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(opts.Timeout))
	}
	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

// Notifier renders a certificate and emails it in a single attempt.
type Notifier struct {
	renderer Renderer
	sender   Sender
	from     string
}

func NewNotifier(renderer Renderer, sender Sender, from string) *Notifier {
	return &Notifier{renderer: renderer, sender: sender, from: from}
}

// SendCertificate renders the certificate for name and mails it to email.
// Every failure is reported as domain.ErrCertificateDelivery.
func (n *Notifier) SendCertificate(ctx context.Context, email, name string) error {
	log.Printf("sending certificate to %s for %s", email, name)
	if err := n.send(ctx, email, name); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCertificateDelivery, err)
	}
	log.Printf("certificate email sent to %s", email)
	return nil
}

func (n *Notifier) send(ctx context.Context, email, name string) error {
	path, err := n.renderer.Render(name)
	if err != nil {
		return err
	}
	msg, err := n.buildMessage(email, name, path)
	if err != nil {
		return err
	}
	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func (n *Notifier) buildMessage(email, name, attachment string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(Subject)
	msg.SetBodyString(mail.TypeTextPlain, Body(name))
	msg.AttachFile(attachment,
		mail.WithFileName(AttachmentName),
		mail.WithFileContentType(mail.ContentType("image/png")),
	)
	return msg, nil
}

// Body is the plain text greeting sent with every certificate.
func Body(name string) string {
	return fmt.Sprintf("Hi %s,\n\nThanks for participating! Your certificate is attached.", name)
}
