// Package email notifies the sales inbox about qualified leads and
// finished conversations. Delivery goes over the configured SMTP
// server via go-mail.
package email

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"leadagent_backend/platform/config"
)

// Sender delivers notification mail to the sales inbox.
type Sender struct {
	host       string
	port       int
	username   string
	password   string
	fromName   string
	fromEmail  string
	salesInbox string
}

func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{
		host:       cfg.GetSMTPHost(),
		port:       cfg.GetSMTPPort(),
		username:   cfg.GetSMTPUsername(),
		password:   cfg.GetSMTPPassword(),
		fromName:   cfg.GetEmailFromName(),
		fromEmail:  cfg.GetEmailFromAddress(),
		salesInbox: cfg.GetSalesInboxAddress(),
	}
}

func (s *Sender) send(ctx context.Context, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(s.salesInbox); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendQualifiedLead mails a handover notification with the captured
// profile attributes.
func (s *Sender) SendQualifiedLead(ctx context.Context, name, company string, fields map[string]string, summary string) error {
	subject := "Qualified lead"
	switch {
	case name != "" && company != "":
		subject = fmt.Sprintf("Qualified lead: %s (%s)", name, company)
	case name != "":
		subject = "Qualified lead: " + name
	case company != "":
		subject = "Qualified lead: " + company
	}

	content, err := renderQualifiedLead(qualifiedLeadData{
		Name:    name,
		Company: company,
		Fields:  fields,
		Summary: summary,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, subject, content)
}

type qualifiedLeadData struct {
	Name    string
	Company string
	Fields  map[string]string
	Summary string
}

var qualifiedLeadTmpl = template.Must(template.New("qualified_lead").Funcs(template.FuncMap{
	"title": func(s string) string { return strings.ReplaceAll(s, "_", " ") },
}).Parse(`<h2>A conversation just qualified a lead</h2>
{{if .Summary}}<p>{{.Summary}}</p>{{end}}
<table cellpadding="4">
{{range $k, $v := .Fields}}<tr><td><strong>{{title $k}}</strong></td><td>{{$v}}</td></tr>
{{end}}</table>
<p>Follow up while the conversation is fresh.</p>`))

func renderQualifiedLead(data qualifiedLeadData) (string, error) {
	var b strings.Builder
	if err := qualifiedLeadTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render qualified lead email: %w", err)
	}
	return b.String(), nil
}
