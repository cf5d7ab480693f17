package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/internal/domain/repository"
	"github.com/oksasatya/go-blog-api/internal/infrastructure/memory"
)

type sentMail struct {
	kind   string
	userID string
	token  string
}

type fakeMailer struct {
	sent chan sentMail
}

func newFakeMailer() *fakeMailer { return &fakeMailer{sent: make(chan sentMail, 16)} }

func (m *fakeMailer) SendVerification(_ context.Context, u *entity.User, token string) error {
	m.sent <- sentMail{kind: "verification", userID: u.ID, token: token}
	return nil
}

func (m *fakeMailer) SendRecovery(_ context.Context, u *entity.User, token string) error {
	m.sent <- sentMail{kind: "recovery", userID: u.ID, token: token}
	return nil
}

func (m *fakeMailer) next(t *testing.T) sentMail {
	t.Helper()
	select {
	case s := <-m.sent:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no mail sent")
		return sentMail{}
	}
}

type fakeImages struct{}

func (fakeImages) Transform(_ context.Context, userID, encoded string) (string, error) {
	return "stored:" + userID + ":" + encoded, nil
}

type mapSessions struct {
	mu sync.Mutex
	m  map[string]string
}

func newMapSessions() *mapSessions { return &mapSessions{m: map[string]string{}} }

func (c *mapSessions) Get(_ context.Context, token string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	uid, ok := c.m[token]
	return uid, ok, nil
}

func (c *mapSessions) Set(_ context.Context, token, userID string, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[token] = userID
	return nil
}

func (c *mapSessions) Delete(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, token)
	return nil
}

// testEnv wires the three services over in-memory repositories and a
// controllable clock.
type testEnv struct {
	ctx      context.Context
	users    *UserService
	posts    *PostService
	comments *CommentService
	userRepo *memory.UserRepository
	postRepo *memory.PostRepository
	mailer   *fakeMailer
	sessions *mapSessions
	logs     *test.Hook

	mu  sync.Mutex
	now time.Time
}

func newTestEnv(t *testing.T, tweak ...func(*Settings)) *testEnv {
	t.Helper()
	settings := DefaultSettings()
	settings.BcryptCost = bcrypt.MinCost
	for _, fn := range tweak {
		fn(&settings)
	}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	env := &testEnv{
		ctx:      context.Background(),
		userRepo: memory.NewUserRepository(),
		postRepo: memory.NewPostRepository(),
		mailer:   newFakeMailer(),
		sessions: newMapSessions(),
		logs:     hook,
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	env.users = NewUserService(env.userRepo, settings, env.mailer, fakeImages{}, env.sessions, logger)
	env.users.Now = env.clock
	env.posts = NewPostService(env.postRepo, env.users, nil, settings, logger)
	env.posts.Now = env.clock
	env.comments = NewCommentService(env.postRepo, env.users, logger)
	env.comments.Now = env.clock
	return env
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

// register creates an account and returns it with its initial apikey.
func (e *testEnv) register(t *testing.T, username string, perms ...entity.Permission) *UserView {
	t.Helper()
	u, err := e.users.Register(e.ctx, RegisterInput{
		Username: username,
		Password: "secret-" + username,
		Fullname: "Name " + username,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.APIKey)
	if len(perms) > 0 {
		e.grant(t, u.ID, perms...)
		u.Permissions = perms
	}
	return u
}

func (e *testEnv) grant(t *testing.T, userID string, perms ...entity.Permission) {
	t.Helper()
	u, err := e.userRepo.GetByID(e.ctx, userID)
	require.NoError(t, err)
	u.Permissions = perms
	require.NoError(t, e.userRepo.Update(e.ctx, u))
}

func (e *testEnv) write(t *testing.T, author *UserView, title, body string, tags ...string) *PostView {
	t.Helper()
	p, err := e.posts.WritePost(e.ctx, WritePostInput{APIKey: author.APIKey, Title: title, Body: body, Tags: tags})
	require.NoError(t, err)
	e.advance(time.Second)
	return p
}

func ptr[T any](v T) *T { return &v }

func listAll() repository.PostQuery { return repository.PostQuery{Limit: MaxPageSize} }
