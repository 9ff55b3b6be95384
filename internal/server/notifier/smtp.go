package notifier

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/wneessen/go-mail"
)

// SMTPSender delivers notifications over SMTP.
type SMTPSender struct {
	from    string
	newConn func() (*mail.Client, error)
}

func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.MailPort),
	}

	if cfg.MailUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.MailUsername),
			mail.WithPassword(cfg.MailPassword),
		)
	}

	switch {
	case cfg.MailSSLTLS:
		opts = append(opts, mail.WithSSL())
	case cfg.MailStartTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	// validate the options once up front
	if _, err := mail.NewClient(cfg.MailServer, opts...); err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPSender{
		from: cfg.MailFrom,
		newConn: func() (*mail.Client, error) {
			return mail.NewClient(cfg.MailServer, opts...)
		},
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, n Notification) error {
	msg, err := buildMessage(s.from, n)
	if err != nil {
		return err
	}

	client, err := s.newConn()
	if err != nil {
		return err
	}

	return client.DialAndSendWithContext(ctx, msg)
}

func buildMessage(from string, n Notification) (*mail.Msg, error) {
	content, err := render(n)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(n.Email); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(content.Subject)
	msg.SetBodyString(mail.TypeTextHTML, content.Body)

	return msg, nil
}
