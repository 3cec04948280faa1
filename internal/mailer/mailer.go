// Package mailer sends the contact-form email through SMTP.
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Message is one contact-form submission.
type Message struct {
	FirstName string
	LastName  string
	Email     string
	Subject   string
	Body      string
}

// Sender delivers contact messages to the site owner.
type Sender interface {
	Send(msg Message) error
}

// SMTPSender implements Sender over an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

// NewSMTPSender creates a sender. from is the verified sender address; to is
// the site owner's inbox.
func NewSMTPSender(host string, port int, username, password, from, to string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		to:     to,
	}
}

// Send delivers one contact message. Reply-To is the visitor's address so
// the owner can answer directly.
func (s *SMTPSender) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, fmt.Sprintf("%s %s", msg.FirstName, msg.LastName))
	m.SetHeader("Reply-To", msg.Email)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}
	return nil
}
