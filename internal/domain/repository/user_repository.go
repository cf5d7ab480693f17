package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate")
	ErrConflict   = errors.New("version conflict")
	ErrTitleTaken = errors.New("title taken")
)

// UserRepository defines the persistence operations for accounts and their apikeys.
type UserRepository interface {
	// Create inserts u together with its apikeys. ErrDuplicate on username or id.
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByAPIKey matches only a key whose expiry is after now.
	GetByAPIKey(ctx context.Context, token string, now time.Time) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	// Update writes profile fields when u.Version matches the stored version,
	// then bumps it. ErrConflict otherwise.
	Update(ctx context.Context, u *entity.User) error
	AddAPIKey(ctx context.Context, userID string, key entity.APIKey) error
	// ExpireAPIKey sets a single key's expiry to at, leaving the user's other keys untouched.
	ExpireAPIKey(ctx context.Context, token string, at time.Time) error
	// MarkVerified flips an unverified account to verified and active.
	// It reports false when the account was already verified.
	MarkVerified(ctx context.Context, id string) (bool, error)
}
