// Package memory provides map-backed repositories. They serve tests and the
// STORE_DRIVER=memory development mode, and honor the same atomicity contract as
// the Postgres implementations.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User // by id
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entity.User)}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	stored := u.Clone()
	stored.Version = 1
	r.users[u.ID] = stored
	u.Version = 1
	return nil
}

func (r *UserRepository) find(match func(*entity.User) bool) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByAPIKey(_ context.Context, token string, now time.Time) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.HasValidKey(token, now) })
}

func (r *UserRepository) List(_ context.Context) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Version != u.Version {
		return repository.ErrConflict
	}
	next := u.Clone()
	// apikeys are owned by AddAPIKey/ExpireAPIKey, never by profile updates
	next.APIKeys = cur.APIKeys
	next.Version = cur.Version + 1
	r.users[u.ID] = next
	u.Version = next.Version
	return nil
}

func (r *UserRepository) AddAPIKey(_ context.Context, userID string, key entity.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.APIKeys = append(u.APIKeys, key)
	return nil
}

func (r *UserRepository) ExpireAPIKey(_ context.Context, token string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		for i := range u.APIKeys {
			if u.APIKeys[i].Token == token {
				u.APIKeys[i].ExpiresAt = at
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (r *UserRepository) MarkVerified(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if u.EmailVerified {
		return false, nil
	}
	u.EmailVerified = true
	u.Deactivated = false
	u.Version++
	return true, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
