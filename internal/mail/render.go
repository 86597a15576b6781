package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[string]string{
	TemplateVerifyEmail:   "Verify your email address",
	TemplatePasswordReset: "Reset your password",
}

type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render returns the subject and HTML body for msg.
func (r *Renderer) Render(msg Message) (subject, body string, err error) {
	subject, ok := subjects[msg.Template]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", msg.Template)
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, msg.Template+".html", msg.Vars); err != nil {
		return "", "", fmt.Errorf("render %s: %w", msg.Template, err)
	}
	return subject, buf.String(), nil
}
