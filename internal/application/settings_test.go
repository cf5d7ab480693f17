package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/internal/domain/repository"
)

func TestRetryOnConflict(t *testing.T) {
	calls := 0
	err := retryOnConflict(func() error {
		calls++
		return repository.ErrConflict
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, maxWriteAttempts, calls)

	calls = 0
	err = retryOnConflict(func() error {
		calls++
		if calls == 1 {
			return repository.ErrConflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	assert.ErrorIs(t, retryOnConflict(func() error { return boom }), boom)
}

// racingPosts lets a concurrent writer win the first conditional write.
type racingPosts struct {
	repository.PostRepository
	raced bool
}

func (r *racingPosts) Update(ctx context.Context, p *entity.Post) error {
	if !r.raced {
		r.raced = true
		other, err := r.PostRepository.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		other.Tags = []string{"concurrent"}
		if err := r.PostRepository.Update(ctx, other); err != nil {
			return err
		}
	}
	return r.PostRepository.Update(ctx, p)
}

func TestUpdatePostRetriesLostRace(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", entity.PermissionPost)
	p := env.write(t, alice, "T", "B")
	env.posts.Repo = &racingPosts{PostRepository: env.postRepo}

	out, err := env.posts.UpdatePost(env.ctx, UpdatePostInput{APIKey: alice.APIKey, ID: p.ID, Body: ptr("mine")})
	require.NoError(t, err)
	assert.Equal(t, "mine", out.Body)
	// the concurrent writer's change survives the retry
	assert.Equal(t, []string{"concurrent"}, out.Tags)
}
