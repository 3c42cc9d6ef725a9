package utils

import (
	"fmt"

	"surveyhub_backend/internal/config"
	"surveyhub_backend/internal/models"

	"gopkg.in/gomail.v2"
)

type EmailSender struct {
	cfg *config.Config
}

func NewEmailSender(cfg *config.Config) *EmailSender {
	return &EmailSender{cfg: cfg}
}

// Enabled - выключенный SMTP просто пропускает отправку
func (e *EmailSender) Enabled() bool {
	return e.cfg.Email.Enabled && e.cfg.Email.SMTPHost != ""
}

func (e *EmailSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.Email.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(
		e.cfg.Email.SMTPHost,
		e.cfg.Email.SMTPPort,
		e.cfg.Email.SMTPUsername,
		e.cfg.Email.SMTPPassword,
	)

	return d.DialAndSend(m)
}

// SendDeadlineReminder - почтовая копия напоминания о дедлайне опроса
func (e *EmailSender) SendDeadlineReminder(to string, survey *models.Survey) error {
	subject := "Survey Due Soon"
	body := fmt.Sprintf(
		"<p>The survey <b>%s</b> is due in less than 24 hours.</p><p>Please complete it before the deadline.</p>",
		survey.Title,
	)
	return e.Send(to, subject, body)
}
