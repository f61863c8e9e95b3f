// Package mail delivers the transactional messages (verification links,
// invitations) over SMTP.
package mail

import (
	"fmt"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"

	"github.com/launchcrm/launchcrm/internal/pkg/env"
)

// SenderIdentity builds the From header from the mail configuration. The
// display name defaults to the product name so tenant mail is recognizable
// even on a bare setup.
func SenderIdentity() (address, from string) {
	name := env.GetEnv("MAIL_FROM_NAME", "LaunchCRM")
	address = env.GetEnv("MAIL_FROM_ADDRESS", "")
	if address == "" {
		address = "no-reply@launchcrm.test"
		log.Warnf("[Mail] MAIL_FROM_ADDRESS not set, using default sender: %s", address)
	}
	return address, fmt.Sprintf("%s <%s>", name, address)
}

// BuildMessage assembles an HTML mail body with its headers.
func BuildMessage(from, to, subject, body string) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", from, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)
}

// SendMail sends one HTML email via the configured SMTP relay.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	sender, from := SenderIdentity()
	msg := BuildMessage(from, to, subject, body)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Errorf("[Mail] send to %s failed: %v", to, err)
	} else {
		log.Infof("[Mail] sent to %s via %s", to, addr)
	}
	return err
}
