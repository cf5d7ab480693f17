package container

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-blog-api/config"
	"github.com/oksasatya/go-blog-api/internal/infrastructure/memory"
)

type nopPublisher struct{}

func (nopPublisher) PublishJSON(context.Context, any) error { return nil }

func TestSettings(t *testing.T) {
	s := Settings(&config.Config{APIKeyTTL: time.Hour, MaxClaps: 3, UniqueTitles: true})
	assert.Equal(t, time.Hour, s.APIKeyTTL)
	assert.Equal(t, 3, s.MaxClaps)
	assert.Equal(t, 10, s.BcryptCost)
	assert.True(t, s.UniqueTitles)
	assert.False(t, s.EmailVerification)
}

func TestNewWithoutInfra(t *testing.T) {
	logger, hook := test.NewNullLogger()
	c := New(&config.Config{StoreDriver: "postgres", MailSendEnabled: true}, logger, Infra{})

	assert.IsType(t, &memory.UserRepository{}, c.UserRepo)
	assert.IsType(t, &memory.PostRepository{}, c.PostRepo)
	assert.Nil(t, c.Index)
	assert.Nil(t, c.Users.Mailer)
	assert.Nil(t, c.Users.Sessions)
	assert.NotNil(t, c.Users.Images)
	assert.Nil(t, c.Posts.Index)
	assert.Same(t, c.Users, c.Posts.Users)
	assert.Same(t, c.Users, c.Comments.Users)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "in-memory")
}

func TestNewWiresOptionalCollaborators(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	logger, _ := test.NewNullLogger()

	cfg := &config.Config{StoreDriver: "memory", MailSendEnabled: true, SessionTTL: time.Minute}
	c := New(cfg, logger, Infra{Redis: rdb, Publisher: nopPublisher{}})
	assert.NotNil(t, c.Users.Mailer)
	assert.NotNil(t, c.Users.Sessions)

	cfg.MailSendEnabled = false
	cfg.SessionTTL = 0
	c = New(cfg, logger, Infra{Redis: rdb, Publisher: nopPublisher{}})
	assert.Nil(t, c.Users.Mailer)
	assert.Nil(t, c.Users.Sessions)
}
