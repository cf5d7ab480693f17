package repository

import (
	"context"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

// PostQuery selects a page of posts. Zero-valued filters are ignored.
// Text results are ordered by relevance, everything else newest first.
type PostQuery struct {
	Author    string
	ClappedBy string
	Text      string
	Offset    int
	Limit     int
}

// PostRepository defines the persistence operations for posts and their embedded claps and comments.
type PostRepository interface {
	// Create inserts p. ErrDuplicate when the id is in use.
	Create(ctx context.Context, p *entity.Post) error
	// CreateWithUniqueTitle inserts p unless another post uses its title case-insensitively,
	// in which case it returns ErrTitleTaken. The check and the insert are one atomic step.
	CreateWithUniqueTitle(ctx context.Context, p *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	// GetByIDs returns the posts that exist, in the order of ids.
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Post, error)
	// TitleTaken reports whether a post other than excludeID already uses title
	// (compared case-insensitively on the normalized form).
	TitleTaken(ctx context.Context, title, excludeID string) (bool, error)
	// Update writes title, body and tags when p.Version matches, then bumps it. ErrConflict otherwise.
	Update(ctx context.Context, p *entity.Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q PostQuery) ([]*entity.Post, error)
	// AddClaps atomically adds delta to userID's entry on postID, creating it when absent,
	// and clamps the stored total to [0, ceiling]. It returns the stored total.
	AddClaps(ctx context.Context, postID, userID string, delta, ceiling int) (int, error)
	AddComment(ctx context.Context, c entity.Comment) error
	UpdateCommentBody(ctx context.Context, postID, commentID, body string) error
	RemoveComment(ctx context.Context, postID, commentID string) error
}
