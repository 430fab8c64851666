package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var newLeadTemplate = template.Must(template.New("new_lead").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h2>New {{.Source}} lead #{{.LeadID}}</h2>
  <table cellpadding="4">
    <tr><td><b>Name</b></td><td>{{if .Name}}{{.Name}}{{else}}-{{end}}</td></tr>
    <tr><td><b>E-mail</b></td><td>{{if .Email}}{{.Email}}{{else}}-{{end}}</td></tr>
    <tr><td><b>Phone</b></td><td>{{if .Phone}}{{.Phone}}{{else}}-{{end}}</td></tr>
    {{if .CampaignName}}<tr><td><b>Campaign</b></td><td>{{.CampaignName}}</td></tr>{{end}}
    <tr><td><b>Received</b></td><td>{{.CreatedAt.Format "2006-01-02 15:04 MST"}}</td></tr>
  </table>
  {{if .Message}}<p>{{.Message}}</p>{{end}}
  {{if .ConsoleURL}}<p><a href="{{.ConsoleURL}}/leads/{{.LeadID}}">Open in console</a></p>{{end}}
</body>
</html>`))

func NewEmailSender(host string, port int, user, password, from string, alertTo []string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		AlertTo:  alertTo,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

func (s *EmailSender) Name() string { return "email" }

// NotifyNewLead sends the new-lead alert to every configured recipient.
func (s *EmailSender) NotifyNewLead(_ context.Context, event queue.LeadCreatedEvent) error {
	if len(s.AlertTo) == 0 {
		zap.L().Debug("mail: no alert recipients, skipping", zap.Int64("lead_id", event.LeadID))
		return nil
	}

	body, err := renderNewLead(NewLeadEmailData{
		LeadID:       event.LeadID,
		Source:       event.Source,
		Name:         event.Name,
		Email:        event.Email,
		Phone:        event.Phone,
		Message:      event.Message,
		CampaignName: event.CampaignName,
		CreatedAt:    event.CreatedAt,
		ConsoleURL:   strings.TrimRight(s.ConsoleURL, "/"),
	})
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.AlertTo...)
	m.SetHeader("Subject", subject(event))
	m.SetBody("text/html", body)
	if event.Email != "" {
		m.SetHeader("Reply-To", event.Email)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return eris.Wrapf(err, "mail: send alert for lead %d", event.LeadID)
	}

	zap.L().Info("mail: lead alert sent", zap.Int64("lead_id", event.LeadID), zap.Int("recipients", len(s.AlertTo)))
	return nil
}

func renderNewLead(data NewLeadEmailData) (string, error) {
	var body bytes.Buffer
	if err := newLeadTemplate.Execute(&body, data); err != nil {
		return "", eris.Wrap(err, "mail: render lead alert")
	}
	return body.String(), nil
}

func subject(event queue.LeadCreatedEvent) string {
	who := event.Name
	if who == "" {
		who = event.Email
	}
	if who == "" {
		return fmt.Sprintf("New %s lead #%d", event.Source, event.LeadID)
	}
	return fmt.Sprintf("New %s lead: %s", event.Source, who)
}
