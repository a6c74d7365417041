package mailer

import (
	"github.com/go-mail/mail"

	"philabasket/internal/config"
)

// Message is a composed email waiting to be delivered by a worker.
type Message struct {
	To      string
	Subject string
	HTML    string
}

func send(msg Message) error {
	m := mail.NewMessage()
	m.SetHeader("From", config.AppEnv.SMTPSender)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	dialer := mail.NewDialer(
		config.AppEnv.SMTPHost,
		config.AppEnv.SMTPPort,
		config.AppEnv.SMTPUsername,
		config.AppEnv.SMTPPassword,
	)
	return dialer.DialAndSend(m)
}
