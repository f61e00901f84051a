// internal/email/service.go
package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/omnierp/omnicore/internal/config"
	"github.com/sendgrid/sendgrid-go"
)

// EmailData contains all necessary information for sending an email
type EmailData struct {
	To           string
	FromName     string
	Subject      string
	TemplateName string
	TemplateData interface{}
}

// Sender sends transactional mail. Service is the sendgrid-backed
// implementation; tests substitute a mock.
type Sender interface {
	SendEmail(data EmailData) error
}

// Service handles email operations via Sendgrid.
type Service struct {
	config         *config.Config
	sendgridClient *sendgrid.Client
	templates      map[string]*template.Template
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg *config.Config) (*Service, error) {
	s := &Service{
		config:         cfg,
		sendgridClient: sendgrid.NewSendClient(cfg.Sendgrid.APIKey),
		templates:      make(map[string]*template.Template),
	}

	for name, body := range templateBodies {
		tmpl, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parsing email template %q: %w", name, err)
		}
		s.templates[name] = tmpl
	}

	return s, nil
}

// SendEmail renders the named template and delivers it.
func (s *Service) SendEmail(data EmailData) error {
	tmpl, ok := s.templates[data.TemplateName]
	if !ok {
		return fmt.Errorf("unknown email template %q", data.TemplateName)
	}

	var html bytes.Buffer
	if err := tmpl.Execute(&html, data.TemplateData); err != nil {
		return fmt.Errorf("rendering email template %q: %w", data.TemplateName, err)
	}

	return s.sendWithSendgrid(data, html.String())
}
