package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/pkg/mailer"
	mailtpl "github.com/oksasatya/go-blog-api/pkg/mailer/templates"
)

type recordingPublisher struct {
	jobs []mailer.EmailJob
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func testUser() *entity.User {
	return &entity.User{
		ID:       "_abc123xyz",
		Fullname: "Alice Doe",
		Email:    "alice@example.com",
		APIKeys:  []entity.APIKey{{Token: "tok", ExpiresAt: time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC)}},
	}
}

func TestQueueMailer_SendVerification(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewQueueMailer(pub, mailtpl.Branding{BlogTitle: "Ambrest Blog"},
		"https://api.example.com/verify", "https://blog.example.com/recover")

	require.NoError(t, m.SendVerification(context.Background(), testUser(), "tok"))
	require.Len(t, pub.jobs, 1)

	job := pub.jobs[0]
	assert.Equal(t, "alice@example.com", job.To)
	assert.Equal(t, mailtpl.VerifyEmail, job.Template)
	assert.Equal(t, "https://api.example.com/verify/tok", job.Data["VerifyURL"])
	assert.Equal(t, "16 May 2024, 00:00", job.Data["ExpiresAtText"])
}

func TestQueueMailer_SendRecovery(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewQueueMailer(pub, mailtpl.Branding{}, "https://api.example.com/verify", "https://blog.example.com/recover/")

	require.NoError(t, m.SendRecovery(context.Background(), testUser(), "tok"))
	require.Len(t, pub.jobs, 1)
	assert.Equal(t, mailtpl.ForgotPassword, pub.jobs[0].Template)
	assert.Equal(t, "https://blog.example.com/recover/tok", pub.jobs[0].Data["ResetURL"])
}

func TestQueueMailer_PublishError(t *testing.T) {
	m := NewQueueMailer(&recordingPublisher{err: errors.New("channel closed")}, mailtpl.Branding{}, "a", "b")
	err := m.SendRecovery(context.Background(), testUser(), "tok")
	assert.ErrorContains(t, err, "channel closed")

	m = NewQueueMailer(nil, mailtpl.Branding{}, "a", "b")
	assert.Error(t, m.SendVerification(context.Background(), testUser(), "tok"))
}
