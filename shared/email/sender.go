package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"

	"cue-stack/internal/models"
	"cue-stack/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

func (s *Sender) SendBackfillDigest(report *models.BackfillReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if len(report.Sessions) == 0 {
		return nil // Nothing was backfilled
	}

	subject := fmt.Sprintf("Session Video Backfill - %d of %d Generated (%s)",
		report.Succeeded, report.Scanned, report.Date.Format("Jan 2, 2006"))

	body, err := s.generateEmailBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

func (s *Sender) generateEmailBody(report *models.BackfillReport) (string, error) {
	// Read template from external file
	templatePath := "agents/backfill/email_template.html"
	tmplBytes, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read email template: %w", err)
	}

	tmpl, err := template.New("email").Parse(string(tmplBytes))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}
