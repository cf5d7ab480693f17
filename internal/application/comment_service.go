package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/internal/domain/policy"
	repo "github.com/oksasatya/go-blog-api/internal/domain/repository"
	"github.com/oksasatya/go-blog-api/pkg/helpers"
)

// CommentService manages comments embedded in posts.
type CommentService struct {
	Posts  repo.PostRepository
	Users  *UserService
	Logger *logrus.Logger
	Now    func() time.Time
}

func NewCommentService(posts repo.PostRepository, users *UserService, logger *logrus.Logger) *CommentService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CommentService{Posts: posts, Users: users, Logger: logger, Now: time.Now}
}

// NewComment builds a comment value without touching storage.
func NewComment(postID, author, body string, now time.Time) entity.Comment {
	return entity.Comment{
		ID:        helpers.NewID(),
		PostID:    postID,
		Author:    author,
		Body:      body,
		CreatedAt: now,
	}
}

func commentBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", domain.InvalidArgument("body", "empty")
	}
	return body, nil
}

type CommentInput struct {
	APIKey string
	PostID string
	Body   string
}

// Comment appends a comment to a post. Requires the comment permission.
func (s *CommentService) Comment(ctx context.Context, in CommentInput) (*CommentView, error) {
	if in.PostID == "" {
		return nil, domain.ErrMissingArguments
	}
	if _, err := s.Posts.GetByID(ctx, in.PostID); err != nil {
		return nil, postLookupErr(err)
	}
	actor, err := s.Users.Actor(ctx, in.APIKey)
	if err != nil {
		return nil, err
	}
	if err := policy.RequirePermission(actor, entity.PermissionComment); err != nil {
		return nil, err
	}
	body, err := commentBody(in.Body)
	if err != nil {
		return nil, err
	}

	c := NewComment(in.PostID, actor.ID, body, s.now())
	if err := s.Posts.AddComment(ctx, c); err != nil {
		return nil, postLookupErr(err)
	}
	s.Logger.WithFields(logrus.Fields{"post_id": c.PostID, "comment_id": c.ID}).Debug("comment added")
	return commentView(c), nil
}

// authorized resolves the post, the actor and the comment, and checks that the
// actor wrote the comment or administrates. Owning the post is not enough.
func (s *CommentService) authorized(ctx context.Context, apikey, postID, commentID string) (*entity.User, entity.Comment, error) {
	if postID == "" || commentID == "" {
		return nil, entity.Comment{}, domain.ErrMissingArguments
	}
	p, err := s.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, entity.Comment{}, postLookupErr(err)
	}
	actor, err := s.Users.Actor(ctx, apikey)
	if err != nil {
		return nil, entity.Comment{}, err
	}
	c, ok := p.Comment(commentID)
	if !ok {
		return nil, entity.Comment{}, domain.ErrCommentNotFound
	}
	if err := policy.RequireSelfOrAdmin(actor, c.Author); err != nil {
		return nil, entity.Comment{}, err
	}
	return actor, c, nil
}

func commentLookupErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return domain.ErrCommentNotFound
	}
	return err
}

// RemoveComment deletes a comment and returns it.
func (s *CommentService) RemoveComment(ctx context.Context, apikey, postID, commentID string) (*CommentView, error) {
	actor, c, err := s.authorized(ctx, apikey, postID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.Posts.RemoveComment(ctx, postID, commentID); err != nil {
		return nil, commentLookupErr(err)
	}
	s.Logger.WithFields(logrus.Fields{"post_id": postID, "comment_id": commentID, "actor_id": actor.ID}).Info("comment removed")
	return commentView(c), nil
}

// UpdateComment replaces a comment's body; id, author and timestamp stay fixed.
func (s *CommentService) UpdateComment(ctx context.Context, apikey, postID, commentID, body string) (*CommentView, error) {
	_, c, err := s.authorized(ctx, apikey, postID, commentID)
	if err != nil {
		return nil, err
	}
	if c.Body, err = commentBody(body); err != nil {
		return nil, err
	}
	if err := s.Posts.UpdateCommentBody(ctx, postID, commentID, c.Body); err != nil {
		return nil, commentLookupErr(err)
	}
	return commentView(c), nil
}

func (s *CommentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
