package application

import (
	"context"
	"time"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

// Mailer delivers account mail out of band. Calls are fire-and-forget from the
// services' point of view; errors are only logged.
type Mailer interface {
	SendVerification(ctx context.Context, u *entity.User, token string) error
	SendRecovery(ctx context.Context, u *entity.User, token string) error
}

// ImageTransformer turns an uploaded (base64) profile picture into the stored
// representation, e.g. a public URL.
type ImageTransformer interface {
	Transform(ctx context.Context, userID, encoded string) (string, error)
}

// SessionCache maps apikeys to user ids. The repository stays the source of
// truth: cached hits are re-checked against the stored record.
type SessionCache interface {
	Get(ctx context.Context, token string) (string, bool, error)
	Set(ctx context.Context, token, userID string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
}

// PostIndex is an external full-text index over posts.
type PostIndex interface {
	Index(ctx context.Context, p *entity.Post) error
	Delete(ctx context.Context, id string) error
	// Search returns matching post ids ordered by relevance.
	Search(ctx context.Context, query string, offset, limit int) ([]string, error)
}
