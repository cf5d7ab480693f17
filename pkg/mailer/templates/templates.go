package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

const (
	VerifyEmail    = "verify_email"
	ForgotPassword = "forgot_password"
)

// EmailData is the value every account mail template is executed with.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	BlogTitle      string `json:"BlogTitle"`
	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`

	LogoURL        string `json:"LogoURL"`
	SupportURL     string `json:"SupportURL"`
	PrivacyURL     string `json:"PrivacyURL"`
	UnsubscribeURL string `json:"UnsubscribeURL"`

	// Action URLs carry the apikey as their last path segment.
	ResetURL  string `json:"ResetURL"`
	VerifyURL string `json:"VerifyURL"`

	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`
}

// ToMap flattens d into the loosely typed form carried by queued jobs.
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// orDefault backs {{ .Value | default "Fallback" }}.
func orDefault(fallback any, value any) any {
	switch v := value.(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(v) == "" {
			return fallback
		}
	}
	return value
}

// set is one parsed mail: subject and text through text/template, body through html/template.
type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var sets = map[string]set{
	VerifyEmail:    mustParse(VerifyEmail),
	ForgotPassword: mustParse(ForgotPassword),
}

func mustParse(name string) set {
	funcs := map[string]any{"default": orDefault}
	parseText := func(file string) *texttpl.Template {
		return texttpl.Must(texttpl.New(file).Funcs(funcs).ParseFS(FS, file))
	}
	return set{
		subject: parseText(name + ".subject.tmpl"),
		text:    parseText(name + ".text.tmpl"),
		html:    htmpl.Must(htmpl.New(name + ".html.tmpl").Funcs(funcs).ParseFS(FS, name+".html.tmpl")),
	}
}

// Known reports whether name has a subject/text/html template set.
func Known(name string) bool {
	_, ok := sets[name]
	return ok
}

func execute(name, part string, run func(*bytes.Buffer) error) (string, error) {
	var buf bytes.Buffer
	if err := run(&buf); err != nil {
		return "", fmt.Errorf("exec %s.%s: %w", name, part, err)
	}
	return buf.String(), nil
}

// Render executes the subject, text and html templates registered under name.
func Render(name string, data any) (subject string, text string, html string, err error) {
	s, ok := sets[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}
	if subject, err = execute(name, "subject", func(b *bytes.Buffer) error { return s.subject.Execute(b, data) }); err != nil {
		return "", "", "", err
	}
	if text, err = execute(name, "text", func(b *bytes.Buffer) error { return s.text.Execute(b, data) }); err != nil {
		return "", "", "", err
	}
	if html, err = execute(name, "html", func(b *bytes.Buffer) error { return s.html.Execute(b, data) }); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
