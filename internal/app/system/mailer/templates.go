// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// ActionEmailData fills the shared call-to-action layout.
type ActionEmailData struct {
	SiteName  string
	Heading   string
	Intro     string
	LinkLabel string
	Link      string
	ExpiresIn string // e.g. "5 minutes"; empty hides the line
}

// RegistrationEmailData is sent after /auth/register.
type RegistrationEmailData struct {
	SiteName  string
	FullName  string
	Link      string
	ExpiresIn string
}

func BuildRegistrationEmail(d RegistrationEmailData) Email {
	return build(fmt.Sprintf("Finish creating your %s account", d.SiteName), ActionEmailData{
		SiteName:  d.SiteName,
		Heading:   "Welcome, " + d.FullName,
		Intro:     "Set a password to finish creating your account.",
		LinkLabel: "Create password",
		Link:      d.Link,
		ExpiresIn: d.ExpiresIn,
	})
}

// ResetEmailData is sent after /auth/forgot-password.
type ResetEmailData struct {
	SiteName  string
	Link      string
	ExpiresIn string
}

func BuildResetEmail(d ResetEmailData) Email {
	return build(fmt.Sprintf("Reset your %s password", d.SiteName), ActionEmailData{
		SiteName:  d.SiteName,
		Heading:   "Password reset",
		Intro:     "Someone asked to reset the password for this account. If it was not you, ignore this email.",
		LinkLabel: "Reset password",
		Link:      d.Link,
		ExpiresIn: d.ExpiresIn,
	})
}

// InviteEmailData is sent when a project member is invited.
type InviteEmailData struct {
	SiteName    string
	ProjectName string
	InviterName string
	Link        string
	ExpiresIn   string
}

func BuildInviteEmail(d InviteEmailData) Email {
	return build(fmt.Sprintf("%s invited you to %s", d.InviterName, d.ProjectName), ActionEmailData{
		SiteName:  d.SiteName,
		Heading:   "Project invitation",
		Intro:     fmt.Sprintf("%s invited you to join the project %q.", d.InviterName, d.ProjectName),
		LinkLabel: "Respond to invitation",
		Link:      d.Link,
		ExpiresIn: d.ExpiresIn,
	})
}

// AssignmentEmailData is sent to members newly assigned to a task or issue.
type AssignmentEmailData struct {
	SiteName    string
	Kind        string // "task" or "issue"
	Title       string
	ProjectName string
	Link        string
}

func BuildAssignmentEmail(d AssignmentEmailData) Email {
	return build(fmt.Sprintf("You were assigned to %s %q", d.Kind, d.Title), ActionEmailData{
		SiteName:  d.SiteName,
		Heading:   "New assignment",
		Intro:     fmt.Sprintf("You were assigned to the %s %q in %s.", d.Kind, d.Title, d.ProjectName),
		LinkLabel: "Open " + d.Kind,
		Link:      d.Link,
	})
}

func build(subject string, d ActionEmailData) Email {
	return Email{
		Subject:  subject,
		TextBody: actionText(d),
		HTMLBody: actionHTML(d),
	}
}

func actionText(d ActionEmailData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n\n", d.Heading, d.Intro)
	fmt.Fprintf(&b, "%s: %s\n", d.LinkLabel, d.Link)
	if d.ExpiresIn != "" {
		fmt.Fprintf(&b, "\nThis link expires in %s.\n", d.ExpiresIn)
	}
	fmt.Fprintf(&b, "\n- %s\n", d.SiteName)
	return b.String()
}

var actionTmpl = template.Must(template.New("action").Parse(actionHTMLTemplate))

func actionHTML(d ActionEmailData) string {
	var buf bytes.Buffer
	_ = actionTmpl.Execute(&buf, d)
	return buf.String()
}

const actionHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 16px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px;">
              <h2 style="margin: 0 0 12px; font-size: 18px; color: #111827;">{{.Heading}}</h2>
              <p style="margin: 0 0 24px; font-size: 15px; color: #374151;">{{.Intro}}</p>
              <p style="text-align: center; margin: 0 0 24px;">
                <a href="{{.Link}}" style="display: inline-block; padding: 12px 24px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">{{.LinkLabel}}</a>
              </p>
              {{if .ExpiresIn}}<p style="margin: 0; font-size: 13px; color: #6b7280;">This link expires in {{.ExpiresIn}}.</p>{{end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`
