// internal/email/mailer/welcome.go
package mailer

import "github.com/omnierp/omnicore/internal/email"

const fromName = "Omni ERP"

// WelcomeTemplateData contains data for the welcome email template
type WelcomeTemplateData struct {
	FullName  string
	OrgName   string
	LoginLink string
}

// SendWelcomeEmail greets a freshly provisioned organization's owner.
func SendWelcomeEmail(s email.Sender, to, fullName, orgName, loginLink string) error {
	return s.SendEmail(email.EmailData{
		To:           to,
		FromName:     fromName,
		Subject:      "Bienvenido a Omni ERP",
		TemplateName: "welcome",
		TemplateData: WelcomeTemplateData{
			FullName:  fullName,
			OrgName:   orgName,
			LoginLink: loginLink,
		},
	})
}

// SendSetupIncompleteEmail tells the owner that first-time provisioning
// failed and is safe to retry.
func SendSetupIncompleteEmail(s email.Sender, to, fullName, orgName string) error {
	return s.SendEmail(email.EmailData{
		To:           to,
		FromName:     fromName,
		Subject:      "Configuración de cuenta incompleta",
		TemplateName: "setup_incomplete",
		TemplateData: WelcomeTemplateData{
			FullName: fullName,
			OrgName:  orgName,
		},
	})
}
