package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-blog-api/config"
	"github.com/oksasatya/go-blog-api/internal/container"
	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

func init() { gin.SetMode(gin.TestMode) }

type envelope struct {
	Status    int               `json:"status"`
	RequestID string            `json:"request_id"`
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      json.RawMessage   `json:"data"`
	Meta      map[string]any    `json:"meta"`
	Error     map[string]string `json:"error"`
}

type api struct {
	t      *testing.T
	engine *gin.Engine
	c      *container.Container
}

func newAPI(t *testing.T, mutate ...func(*config.Config)) *api {
	t.Helper()
	cfg := &config.Config{
		AppName:             "blog-test",
		StoreDriver:         "memory",
		APIKeyTTL:           time.Hour,
		BcryptCost:          bcrypt.MinCost,
		MaxClaps:            50,
		BlogAuthor:          "Jane Doe",
		BlogTitle:           "Notes",
		BlogVersion:         "2.1.0",
		PublicDomain:        "https://blog.example/",
		DebugMetricsEnabled: true,
	}
	for _, m := range mutate {
		m(cfg)
	}
	logger, _ := test.NewNullLogger()
	c := container.New(cfg, logger, container.Infra{})
	return &api{t: t, engine: NewEngine(c), c: c}
}

func (a *api) do(method, path, apikey string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apikey != "" {
		req.Header.Set("Authorization", "Bearer "+apikey)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

type userOut struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	APIKey      string   `json:"apikey"`
	Permissions []string `json:"permissions"`
	Deactivated bool     `json:"deactivated"`
}

type commentOut struct {
	ID     string `json:"id"`
	PostID string `json:"postid"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

type postOut struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Author     string       `json:"author"`
	Tags       []string     `json:"tags"`
	TotalClaps int          `json:"totalClaps"`
	MyClaps    *int         `json:"myClaps"`
	Comments   []commentOut `json:"comments"`
	User       *userOut     `json:"user"`
}

// register creates an account and returns it with its apikey.
func (a *api) register(username string, perms ...entity.Permission) userOut {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"password": "pw-" + username,
		"fullname": "Test " + username,
		"email":    username + "@example.com",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	u := decode[userOut](a.t, env.Data)
	if len(perms) > 0 {
		ctx := context.Background()
		stored, err := a.c.UserRepo.GetByID(ctx, u.ID)
		require.NoError(a.t, err)
		stored.Permissions = perms
		require.NoError(a.t, a.c.UserRepo.Update(ctx, stored))
	}
	return u
}

func TestAccountEndpoints(t *testing.T) {
	a := newAPI(t)

	alice := a.register("alice")
	require.NotEmpty(t, alice.APIKey)
	assert.Equal(t, []string{"comment"}, alice.Permissions)

	w, env := a.do(http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice", "password": "other", "fullname": "A", "email": "a2@example.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "User already exists.", env.Message)
	assert.NotEmpty(t, env.RequestID)

	w, env = a.do(http.MethodPost, "/api/register", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You must provide arguments.", env.Message)

	w, env = a.do(http.MethodPost, "/api/register", "", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You have not provided all required arguments", env.Message)

	w, env = a.do(http.MethodPost, "/api/register", "", map[string]string{
		"username": "x", "password": "secret", "fullname": "X", "email": "x@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "username")

	w, env = a.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Password is wrong.", env.Message)

	w, env = a.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "pw-alice"})
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[userOut](t, env.Data)
	require.NotEqual(t, alice.APIKey, second.APIKey)

	// apikey login with the bearer header and no body
	w, env = a.do(http.MethodPost, "/api/login", second.APIKey, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, second.APIKey, decode[userOut](t, env.Data).APIKey)

	w, _ = a.do(http.MethodPost, "/api/logout", second.APIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = a.do(http.MethodGet, "/api/user", second.APIKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User was not found.", env.Message)

	w, env = a.do(http.MethodGet, "/api/user", alice.APIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", decode[userOut](t, env.Data).Email)

	bob := a.register("bob")
	w, env = a.do(http.MethodGet, "/api/user?username=alice", bob.APIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[userOut](t, env.Data).Email)

	w, env = a.do(http.MethodGet, "/api/user?username=alice&id="+alice.ID, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Too many arguments", env.Message)

	w, env = a.do(http.MethodPatch, "/api/users/"+alice.ID, bob.APIKey, map[string]string{"fullname": "Mallory"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User does not have sufficient rights to perform this action.", env.Message)

	w, env = a.do(http.MethodPatch, "/api/users/"+bob.ID, bob.APIKey, map[string]any{"permissions": []string{"root"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "permissions[0]")

	w, _ = a.do(http.MethodGet, "/api/users", bob.APIKey, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := a.register("root", entity.PermissionAdministrate)
	w, env = a.do(http.MethodGet, "/api/users", admin.APIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]userOut](t, env.Data), 2)
	assert.EqualValues(t, 2, env.Meta["count"])

	w, env = a.do(http.MethodPatch, "/api/users/"+bob.ID, admin.APIKey, map[string]any{"deactivated": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[userOut](t, env.Data).Deactivated)
	w, env = a.do(http.MethodPost, "/api/posts/_abc123xyz/comments", bob.APIKey, map[string]string{"body": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post was not found.", env.Message)
}

func TestPostAndCommentEndpoints(t *testing.T) {
	a := newAPI(t)
	author := a.register("author", entity.PermissionPost, entity.PermissionComment)
	reader := a.register("reader")

	w, env := a.do(http.MethodPost, "/api/posts", reader.APIKey, map[string]any{"title": "Nope", "body": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = a.do(http.MethodPost, "/api/posts", author.APIKey, map[string]any{
		"title": "Hello World", "body": "first post about gophers", "tags": []string{"go", "go", "intro"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[postOut](t, env.Data)
	assert.Equal(t, []string{"go", "intro"}, post.Tags)
	require.NotNil(t, post.User)
	assert.Equal(t, "author", post.User.Username)
	assert.Empty(t, post.User.Email)

	w, env = a.do(http.MethodGet, "/api/posts/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	anon := decode[postOut](t, env.Data)
	assert.Nil(t, anon.MyClaps)
	assert.Zero(t, anon.TotalClaps)

	w, env = a.do(http.MethodPost, "/api/posts/"+post.ID+"/claps", reader.APIKey, map[string]int{"newClaps": 70})
	require.Equal(t, http.StatusOK, w.Code)
	clapped := decode[postOut](t, env.Data)
	require.NotNil(t, clapped.MyClaps)
	assert.Equal(t, 50, *clapped.MyClaps)
	assert.Equal(t, 50, clapped.TotalClaps)

	w, env = a.do(http.MethodPost, "/api/posts/"+post.ID+"/claps", reader.APIKey, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You have not provided all required arguments", env.Message)

	w, env = a.do(http.MethodGet, "/api/users/"+reader.ID+"/clapped", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]postOut](t, env.Data), 1)

	w, env = a.do(http.MethodGet, "/api/users/"+author.ID+"/posts?start=0&end=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]postOut](t, env.Data), 1)

	w, env = a.do(http.MethodGet, "/api/posts/search?query=gophers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]postOut](t, env.Data)
	require.Len(t, found, 1)
	assert.Equal(t, post.ID, found[0].ID)

	w, env = a.do(http.MethodGet, "/api/posts?start=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = a.do(http.MethodPost, "/api/posts/"+post.ID+"/comments", reader.APIKey, map[string]string{"body": "  nice\n"})
	require.Equal(t, http.StatusCreated, w.Code)
	cm := decode[commentOut](t, env.Data)
	assert.Equal(t, "nice", cm.Body)
	assert.Equal(t, post.ID, cm.PostID)

	// owning the post does not allow removing someone else's comment
	w, env = a.do(http.MethodDelete, "/api/posts/"+post.ID+"/comments/"+cm.ID, author.APIKey, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = a.do(http.MethodPatch, "/api/posts/"+post.ID+"/comments/"+cm.ID, reader.APIKey, map[string]string{"body": "very nice"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "very nice", decode[commentOut](t, env.Data).Body)

	w, _ = a.do(http.MethodDelete, "/api/posts/"+post.ID+"/comments/"+cm.ID, reader.APIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = a.do(http.MethodDelete, "/api/posts/"+post.ID+"/comments/"+cm.ID, reader.APIKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Comment was not found.", env.Message)

	w, env = a.do(http.MethodPatch, "/api/posts/"+post.ID, author.APIKey, map[string]any{"body": "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello World", decode[postOut](t, env.Data).Title)

	w, _ = a.do(http.MethodDelete, "/api/posts/"+post.ID, reader.APIKey, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = a.do(http.MethodDelete, "/api/posts/"+post.ID, author.APIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = a.do(http.MethodGet, "/api/posts/"+post.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post was not found.", env.Message)
}

func TestVerifyRedirects(t *testing.T) {
	a := newAPI(t, func(c *config.Config) { c.EmailVerification = true })

	u := a.register("carol")
	assert.Empty(t, u.APIKey)
	assert.True(t, u.Deactivated)

	stored, err := a.c.UserRepo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, stored.APIKeys, 1)
	token := stored.APIKeys[0].Token

	w, _ := a.do(http.MethodGet, "/verify/"+token, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://blog.example/login", w.Header().Get("Location"))

	// the token is spent once used
	w, _ = a.do(http.MethodGet, "/verify/"+token, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://blog.example/", w.Header().Get("Location"))

	w, env := a.do(http.MethodPost, "/api/login", "", map[string]string{"username": "carol", "password": "pw-carol"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode[userOut](t, env.Data).Deactivated)
}

func TestInfoAndDebug(t *testing.T) {
	a := newAPI(t)

	w, env := a.do(http.MethodGet, "/api/info", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]string](t, env.Data)
	assert.Equal(t, map[string]string{"author": "Jane Doe", "version": "2.1.0", "blogTitle": "Notes"}, info)

	w, _ = a.do(http.MethodGet, "/api/debug/vars", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blog_requests")
	assert.Contains(t, w.Body.String(), "GET /api/info")

	w, env = a.do(http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}
