package notifications

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"salon-booking/shared/config"
)

type EmailClient struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewEmailClient(cfg *config.Config) *EmailClient {
	return &EmailClient{
		host:     cfg.Email.Host,
		port:     cfg.Email.Port,
		username: cfg.Email.User,
		password: cfg.Email.Password,
		from:     cfg.Email.From,
	}
}

// Send delivers one HTML email over SMTP with STARTTLS.
func (e *EmailClient) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", e.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if e.username != "" {
		auth := smtp.PlainAuth("", e.username, e.password, e.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(e.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg.String())); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
