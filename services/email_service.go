package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/urjafest/sportsfest-backend/config"
)

// Mailer - узкий интерфейс для уведомлений, которые шлют другие сервисы.
type Mailer interface {
	SendWelcomeEmail(userEmail, firstName string) error
	SendJoinDecisionEmail(userEmail, teamName string, accepted bool) error
	SendTeamLockedEmail(emails []string, teamName string) error
}

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
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

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
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

	_, err = w.Write(msg)
	if err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}

	return nil
}

func (s *EmailService) GenerateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("ошибка парсинга шаблона %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", templatePath, err)
	}

	return body.String(), nil
}

func (s *EmailService) SendWelcomeEmail(userEmail, firstName string) error {
	subject := "Welcome to the Sports Fest!"
	templateData := struct {
		FirstName string
		FestLink  string
	}{
		FirstName: firstName,
		FestLink:  s.cfg.PublicURL,
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/welcome_email.html", templateData)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела приветственного письма: %w", err)
	}

	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendJoinDecisionEmail(userEmail, teamName string, accepted bool) error {
	subject := fmt.Sprintf("Your request to join %s", teamName)
	decision := "rejected"
	if accepted {
		decision = "accepted"
	}
	data := struct {
		TeamName string
		Decision string
		TeamLink string
	}{
		TeamName: teamName,
		Decision: decision,
		TeamLink: fmt.Sprintf("%s/teams", s.cfg.PublicURL),
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/join_decision_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма о решении по заявке: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendTeamLockedEmail(emails []string, teamName string) error {
	subject := fmt.Sprintf("Team %s is locked and ready to play", teamName)
	data := struct {
		TeamName string
	}{
		TeamName: teamName,
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/team_locked_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма о закрытии состава: %w", err)
	}
	for _, email := range emails {
		if err := s.SendEmail([]string{email}, subject, htmlBody); err != nil {
			return fmt.Errorf("ошибка отправки уведомления %s: %w", email, err)
		}
	}
	return nil
}
