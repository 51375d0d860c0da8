package notifier

import (
	"fmt"
	"net/smtp"
)

type EmailService struct {
	from       string
	username   string
	password   string
	host       string
	port       string
	sendMailFn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates an email service that delivers through SMTP with PLAIN auth.
func NewEmailService(host, port, username, password, from string) (*EmailService, error) {
	if host == "" || username == "" || password == "" {
		return nil, fmt.Errorf("SMTP configuration incomplete")
	}
	if from == "" {
		from = username
	}

	return &EmailService{
		from:       from,
		username:   username,
		password:   password,
		host:       host,
		port:       port,
		sendMailFn: smtp.SendMail,
	}, nil
}

// Send delivers a plain-text message to a single recipient.
func (s *EmailService) Send(to, subject, body string) error {
	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s", s.from, to, subject, body)

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := s.host + ":" + s.port

	if err := s.sendMailFn(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
