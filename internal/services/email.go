package services

import (
	"chapterauth/internal/config"
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type EmailService struct {
	auth smtp.Auth
	from string
	host string
	port string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(cfg *config.Config) *EmailService {
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	return &EmailService{
		auth: auth,
		from: cfg.MailFrom,
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		send: smtp.SendMail,
	}
}

// Send отправляет текстовое письмо одному адресату.
func (s *EmailService) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, s.auth, s.from, []string{to}, s.buildMessage(to, subject, body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}

func (s *EmailService) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
