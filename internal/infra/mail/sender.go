package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

var welcomeTmpl = template.Must(template.ParseFS(templatesFS, "templates/welcome.html"))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from, loginURL string) *EmailSender {
	return &EmailSender{
		From:     from,
		LoginURL: loginURL,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// SendWelcome avisa o novo usuário da clínica que a conta foi criada.
func (s *EmailSender) SendWelcome(to, name, role string) error {
	m, err := s.buildWelcome(to, name, role)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}
	return nil
}

func (s *EmailSender) buildWelcome(to, name, role string) (*gomail.Message, error) {
	var body bytes.Buffer
	data := WelcomeEmailData{Name: name, Role: role, LoginURL: s.LoginURL}
	if err := welcomeTmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("erro ao processar template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Bem-vindo ao CRM da clínica, %s!", name))
	m.SetBody("text/html", body.String())
	return m, nil
}
