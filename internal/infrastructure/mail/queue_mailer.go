// Package mail turns account mail requests into jobs on the email queue. The
// email worker renders and delivers them.
package mail

import (
	"context"
	"fmt"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/pkg/mailer"
	mailtpl "github.com/oksasatya/go-blog-api/pkg/mailer/templates"
)

// JobPublisher is satisfied by *helpers.RabbitPublisher.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type QueueMailer struct {
	Publisher JobPublisher
	Branding  mailtpl.Branding
	VerifyURL string // API base of the verify side-entry; the apikey is appended
	ResetURL  string // front-end recover page; the apikey is appended
}

func NewQueueMailer(p JobPublisher, b mailtpl.Branding, verifyURL, resetURL string) *QueueMailer {
	return &QueueMailer{Publisher: p, Branding: b, VerifyURL: verifyURL, ResetURL: resetURL}
}

func (m *QueueMailer) SendVerification(ctx context.Context, u *entity.User, token string) error {
	data := mailtpl.NewVerifyEmailData(m.Branding, u.Fullname, u.Email,
		mailtpl.ActionURL(m.VerifyURL, token), expiryOption(u, token))
	return m.publish(ctx, u.Email, mailtpl.VerifyEmail, data)
}

func (m *QueueMailer) SendRecovery(ctx context.Context, u *entity.User, token string) error {
	data := mailtpl.NewForgotPasswordData(m.Branding, u.Fullname, u.Email,
		mailtpl.ActionURL(m.ResetURL, token), expiryOption(u, token))
	return m.publish(ctx, u.Email, mailtpl.ForgotPassword, data)
}

func (m *QueueMailer) publish(ctx context.Context, to, template string, data map[string]any) error {
	if m.Publisher == nil {
		return fmt.Errorf("mail: no publisher configured")
	}
	job := mailer.EmailJob{To: to, Template: template, Data: data}
	if err := m.Publisher.PublishJSON(ctx, job); err != nil {
		return fmt.Errorf("publish %s job: %w", template, err)
	}
	return nil
}

func expiryOption(u *entity.User, token string) mailtpl.Option {
	k, ok := u.Key(token)
	if !ok {
		return func(*mailtpl.EmailData) {}
	}
	return mailtpl.WithExpiresAt(k.ExpiresAt)
}
