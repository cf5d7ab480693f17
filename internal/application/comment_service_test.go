package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

// A posts, B may only comment; the comment belongs to B, so A (not an
// administrator) may not remove it even though A wrote the post.
func TestCommentAuthorizationScenario(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "authora", entity.PermissionPost)
	b := env.register(t, "readerb", entity.PermissionComment)
	admin := env.register(t, "admin", entity.PermissionAdministrate)

	p := env.write(t, a, "Hello World", "body")

	_, err := env.posts.WritePost(env.ctx, WritePostInput{APIKey: b.APIKey, Title: "B's post", Body: "x"})
	assert.ErrorIs(t, err, domain.ErrInsufficientRights)

	c, err := env.comments.Comment(env.ctx, CommentInput{APIKey: b.APIKey, PostID: p.ID, Body: "\n  nice \n"})
	require.NoError(t, err)
	assert.Equal(t, "nice", c.Body)
	assert.Equal(t, b.ID, c.Author)
	assert.Equal(t, p.ID, c.PostID)

	got, err := env.posts.GetPost(env.ctx, p.ID, "")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, c.ID, got.Comments[0].ID)

	_, err = env.comments.RemoveComment(env.ctx, a.APIKey, p.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientRights)
	_, err = env.comments.UpdateComment(env.ctx, a.APIKey, p.ID, c.ID, "edited by A")
	assert.ErrorIs(t, err, domain.ErrInsufficientRights)

	removed, err := env.comments.RemoveComment(env.ctx, admin.APIKey, p.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "nice", removed.Body)

	got, err = env.posts.GetPost(env.ctx, p.ID, "")
	require.NoError(t, err)
	assert.Empty(t, got.Comments)
}

func TestCommentRequiresPermission(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "authora", entity.PermissionPost)
	p := env.write(t, a, "T", "B")

	_, err := env.comments.Comment(env.ctx, CommentInput{APIKey: a.APIKey, PostID: p.ID, Body: "self reply"})
	assert.ErrorIs(t, err, domain.ErrInsufficientRights)
}

func TestCommentLookups(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "authora", entity.PermissionPost, entity.PermissionComment)
	p := env.write(t, a, "T", "B")

	_, err := env.comments.Comment(env.ctx, CommentInput{APIKey: a.APIKey, PostID: "_missing00", Body: "x"})
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	_, err = env.comments.Comment(env.ctx, CommentInput{APIKey: "unknown", PostID: p.ID, Body: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = env.comments.Comment(env.ctx, CommentInput{APIKey: a.APIKey, PostID: p.ID, Body: " \n\t"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = env.comments.RemoveComment(env.ctx, a.APIKey, p.ID, "_nocomment")
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)

	_, err = env.comments.UpdateComment(env.ctx, a.APIKey, p.ID, "", "x")
	assert.ErrorIs(t, err, domain.ErrMissingArguments)
}

func TestUpdateCommentKeepsIdentity(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "authora", entity.PermissionPost, entity.PermissionComment)
	p := env.write(t, a, "T", "B")

	first, err := env.comments.Comment(env.ctx, CommentInput{APIKey: a.APIKey, PostID: p.ID, Body: "first"})
	require.NoError(t, err)
	env.advance(time.Minute)
	second, err := env.comments.Comment(env.ctx, CommentInput{APIKey: a.APIKey, PostID: p.ID, Body: "second"})
	require.NoError(t, err)
	env.advance(time.Minute)

	up, err := env.comments.UpdateComment(env.ctx, a.APIKey, p.ID, first.ID, "  first, edited ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, up.ID)
	assert.Equal(t, first.Author, up.Author)
	assert.Equal(t, first.Timestamp, up.Timestamp)
	assert.Equal(t, "first, edited", up.Body)

	got, err := env.posts.GetPost(env.ctx, p.ID, "")
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, first.ID, got.Comments[0].ID)
	assert.Equal(t, "first, edited", got.Comments[0].Body)
	assert.Equal(t, second.ID, got.Comments[1].ID)
}

func TestDeactivatedUserCannotComment(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "authora", entity.PermissionPost, entity.PermissionComment)
	admin := env.register(t, "admin", entity.PermissionAdministrate)
	p := env.write(t, a, "T", "B")

	_, err := env.users.UpdateUser(env.ctx, UpdateUserInput{APIKey: admin.APIKey, ID: a.ID, Deactivated: ptr(true)})
	require.NoError(t, err)

	_, err = env.comments.Comment(env.ctx, CommentInput{APIKey: a.APIKey, PostID: p.ID, Body: "x"})
	assert.ErrorIs(t, err, domain.ErrUserDeactivated)
}
