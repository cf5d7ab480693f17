package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-blog-api/pkg/mailer/templates"
)

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Outcome tells the queue consumer what to do with a delivery.
type Outcome int

const (
	Ack   Outcome = iota // delivered
	Drop                 // malformed, never deliverable
	Retry                // transient failure, requeue
)

// Worker turns queued EmailJobs into sent mail.
type Worker struct {
	Sender Sender
	Logger *logrus.Logger
}

func NewWorker(s Sender, logger *logrus.Logger) *Worker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Worker{Sender: s, Logger: logger}
}

// SubjectFor is used when a job carries neither a subject nor a renderable template.
func SubjectFor(template string) string {
	switch strings.ToLower(template) {
	case mailtpl.VerifyEmail:
		return "Email Verification"
	case mailtpl.ForgotPassword:
		return "Reset your password"
	default:
		return "Notification"
	}
}

// EnsureRecipient fills the Email and RecipientEmail template fields from the job's address.
func EnsureRecipient(job *EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	for _, key := range []string{"Email", "RecipientEmail"} {
		if v, ok := job.Data[key]; !ok || fmt.Sprintf("%v", v) == "" {
			job.Data[key] = job.To
		}
	}
}

// Render produces subject, text and html for a job. Raw jobs pass through.
func Render(job EmailJob) (subject, text, html string, err error) {
	if job.Template == "" {
		if job.Subject == "" {
			job.Subject = SubjectFor("")
		}
		return job.Subject, job.Text, job.HTML, nil
	}
	subject, text, html, err = mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", err
	}
	if subject == "" {
		subject = SubjectFor(job.Template)
	}
	return subject, text, html, nil
}

// Handle decodes, renders and sends one queued job.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.Logger.WithError(err).Warn("bad email job")
		return Drop
	}
	if err := job.Validate(); err != nil {
		w.Logger.WithError(err).WithField("template", job.Template).Warn("undeliverable email job")
		return Drop
	}
	EnsureRecipient(&job)

	subject, text, html, err := Render(job)
	if err != nil {
		w.Logger.WithError(err).WithField("template", job.Template).Warn("render failed")
		return Drop
	}
	if err := w.Sender.Send(ctx, job.To, subject, text, html); err != nil {
		w.Logger.WithError(err).WithField("template", job.Template).Warn("send failed")
		return Retry
	}
	w.Logger.WithField("template", job.Template).Info("email sent")
	return Ack
}
