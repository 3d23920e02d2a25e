package email

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	subjectEscalationFmt = "Action needed: customer waiting for a callback (%s)"
	subjectLeadFmt       = "New lead: %s"
)

var escalationTemplate = template.Must(template.New("escalation").Parse(`
<h2>A customer needs a callback</h2>
<p><strong>{{.CustomerName}}</strong> ({{.CustomerPhone}}) was escalated on the {{.Channel}} channel.</p>
<p>Reason: <strong>{{.Reason}}</strong></p>
{{if .Transcript}}
<h3>Last messages</h3>
<ul>
{{range .Transcript}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
<p>Reply to the customer as soon as possible.</p>
`))

var leadTemplate = template.Must(template.New("lead").Parse(`
<h2>You have a new lead</h2>
<p><strong>{{.CustomerName}}</strong> ({{.CustomerPhone}})</p>
<p>Job: {{.JobCategory}} &middot; Urgency: {{.Urgency}}</p>
{{if .Address}}<p>Address: {{.Address}}</p>{{end}}
`))

func renderEscalation(alert EscalationAlert) (string, string, error) {
	var buf bytes.Buffer
	if err := escalationTemplate.Execute(&buf, alert); err != nil {
		return "", "", fmt.Errorf("render escalation email: %w", err)
	}
	return fmt.Sprintf(subjectEscalationFmt, alert.Reason), buf.String(), nil
}

func renderLead(alert LeadAlert) (string, string, error) {
	var buf bytes.Buffer
	if err := leadTemplate.Execute(&buf, alert); err != nil {
		return "", "", fmt.Errorf("render lead email: %w", err)
	}
	subject := fmt.Sprintf(subjectLeadFmt, alert.JobCategory)
	return subject, buf.String(), nil
}
