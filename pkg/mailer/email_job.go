package mailer

import (
	"errors"

	mailtpl "github.com/oksasatya/go-blog-api/pkg/mailer/templates"
)

// EmailJob is one message on the email queue. Template jobs are rendered by
// the worker from Data; raw jobs carry their own Subject, Text and HTML.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

var (
	errNoRecipient     = errors.New("email job without recipient")
	errUnknownTemplate = errors.New("unknown template")
)

// Validate rejects jobs that can never be delivered.
func (j EmailJob) Validate() error {
	if j.To == "" {
		return errNoRecipient
	}
	if j.Template != "" && !mailtpl.Known(j.Template) {
		return errUnknownTemplate
	}
	return nil
}
