package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Dosada05/wishly/config"
)

// InviteMailer отправляет письмо-приглашение в повод.
type InviteMailer interface {
	SendInviteEmail(to string, data InviteEmailData) error
}

type InviteEmailData struct {
	OccasionName  string
	OccasionEmoji string
	InviterName   string
	InviteLink    string
}

var inviteEmailTemplate = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html>
<body>
<p>{{.InviterName}} invited you to join <strong>{{.OccasionEmoji}} {{.OccasionName}}</strong> on Wishly.</p>
<p><a href="{{.InviteLink}}">Open the invite</a></p>
<p>The link is valid for 14 days.</p>
</body>
</html>`))

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled is false when SMTP is not configured; sends are then no-ops.
func (s *EmailService) Enabled() bool {
	return s.cfg != nil && s.cfg.SMTPEnabled()
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	if !s.Enabled() || len(to) == 0 {
		return nil
	}

	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	msg := buildMessage(s.cfg.SMTPFrom, to[0], subject, body)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	tlsconfig := &tls.Config{ServerName: s.cfg.SMTPHost}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if s.cfg.SMTPUser != "" {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
		}
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte("To: " + to + "\r\n" +
		"From: " + from + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		body + "\r\n")
}

func renderInviteEmail(data InviteEmailData) (string, error) {
	var body bytes.Buffer
	if err := inviteEmailTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона приглашения: %w", err)
	}
	return body.String(), nil
}

func (s *EmailService) SendInviteEmail(to string, data InviteEmailData) error {
	if !s.Enabled() {
		return nil
	}
	body, err := renderInviteEmail(data)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s invited you to %s", data.InviterName, data.OccasionName)
	return s.SendEmail([]string{to}, subject, body)
}
