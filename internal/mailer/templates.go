package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

type TemplateKind string

const (
	TemplateEventReminder   TemplateKind = "event-reminder"
	TemplateEventInvitation TemplateKind = "event-invitation"
	TemplateEventCancelled  TemplateKind = "event-cancelled"
	TemplateGeneral         TemplateKind = "general-notification"
)

type TemplateData map[string]interface{}

var templates = template.Must(template.New("mail").Parse(`
{{define "event-reminder"}}
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Event Reminder</h2>
  <p>Hi {{.UserName}},</p>
  <p>This is a reminder that "<strong>{{.EventTitle}}</strong>" is starting soon!</p>
  <div style="background: #f5f5f5; padding: 20px; margin: 20px 0; border-radius: 5px;">
    <p><strong>Event:</strong> {{.EventTitle}}</p>
    <p><strong>Starts:</strong> {{.StartsAt}}</p>
    {{if .JoinURL}}<p><strong>Join Link:</strong> <a href="{{.JoinURL}}">Join Meeting</a></p>{{end}}
  </div>
  <p>We look forward to seeing you there!</p>
  <p>Best regards,<br>World Salon Team</p>
</div>
{{end}}

{{define "event-invitation"}}
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Event Invitation</h2>
  <p>Hi {{.UserName}},</p>
  <p>You've been invited to participate in an upcoming event!</p>
  <div style="background: #f5f5f5; padding: 20px; margin: 20px 0; border-radius: 5px;">
    <p><strong>Event:</strong> {{.EventTitle}}</p>
    <p><strong>Description:</strong> {{.Message}}</p>
    <p><strong>Starts:</strong> {{.StartsAt}}</p>
  </div>
  <p>Please log in to your speaker portal to RSVP.</p>
  <p>Best regards,<br>World Salon Team</p>
</div>
{{end}}

{{define "event-cancelled"}}
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #d32f2f;">Event Cancelled</h2>
  <p>Hi {{.UserName}},</p>
  <p>We regret to inform you that the following event has been cancelled:</p>
  <div style="background: #ffebee; padding: 20px; margin: 20px 0; border-radius: 5px; border-left: 4px solid #d32f2f;">
    <p><strong>Event:</strong> {{.EventTitle}}</p>
    <p><strong>Original Date:</strong> {{.StartsAt}}</p>
  </div>
  <p>We apologize for any inconvenience this may cause.</p>
  <p>Best regards,<br>World Salon Team</p>
</div>
{{end}}

{{define "general-notification"}}
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">{{.Title}}</h2>
  <p>Hi {{.UserName}},</p>
  <p>{{.Message}}</p>
  <p>Best regards,<br>World Salon Team</p>
</div>
{{end}}
`))

func RenderTemplate(kind TemplateKind, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(kind), data); err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}
	return buf.String(), nil
}
