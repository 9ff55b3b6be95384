package notifier

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type message struct {
	Subject string
	Body    string
}

var subjects = map[Kind]string{
	KindVerification:  "Your Verification Code",
	KindPasswordReset: "Your Password Reset Code",
}

// render builds the subject and HTML body for n.
func render(n Notification) (message, error) {
	subject, ok := subjects[n.Kind]
	if !ok {
		return message{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(n.Kind)+".html", n); err != nil {
		return message{}, err
	}

	return message{Subject: subject, Body: buf.String()}, nil
}
