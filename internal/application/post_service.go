package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/internal/domain/policy"
	repo "github.com/oksasatya/go-blog-api/internal/domain/repository"
	"github.com/oksasatya/go-blog-api/pkg/helpers"
)

const (
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// PostService owns posts, clap accounting and the per-caller read model.
type PostService struct {
	Repo     repo.PostRepository
	Users    *UserService
	Index    PostIndex
	Settings Settings
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewPostService(repo repo.PostRepository, users *UserService, index PostIndex, settings Settings, logger *logrus.Logger) *PostService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PostService{Repo: repo, Users: users, Index: index, Settings: settings, Logger: logger, Now: time.Now}
}

func (s *PostService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// normalizeTitle applies NFKC and trims surrounding whitespace.
func normalizeTitle(title string) string {
	return strings.TrimSpace(norm.NFKC.String(title))
}

// normalizeTags trims tags, drops empty ones and removes duplicates keeping first occurrence.
func normalizeTags(tags []string) []string {
	out := lo.Uniq(lo.FilterMap(tags, func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(norm.NFKC.String(t))
		return t, t != ""
	}))
	if out == nil {
		return []string{}
	}
	return out
}

// NewPost builds a post value without touching storage.
func NewPost(title, author, body string, tags []string, now time.Time) *entity.Post {
	return &entity.Post{
		ID:        helpers.NewID(),
		Title:     title,
		Author:    author,
		Body:      body,
		Tags:      tags,
		Claps:     []entity.Clap{},
		Comments:  []entity.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func postLookupErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return domain.ErrPostNotFound
	}
	return err
}

type WritePostInput struct {
	APIKey string
	Title  string
	Body   string
	Tags   []string
}

// WritePost creates a post. Requires the post permission.
func (s *PostService) WritePost(ctx context.Context, in WritePostInput) (*PostView, error) {
	actor, err := s.Users.Actor(ctx, in.APIKey)
	if err != nil {
		return nil, err
	}
	if err := policy.RequirePermission(actor, entity.PermissionPost); err != nil {
		return nil, err
	}
	title := normalizeTitle(in.Title)
	if title == "" {
		return nil, domain.InvalidArgument("title", "empty")
	}
	if in.Body == "" {
		return nil, domain.InvalidArgument("body", "empty")
	}

	p := NewPost(title, actor.ID, in.Body, normalizeTags(in.Tags), s.now())
	if err := s.create(ctx, p); err != nil {
		return nil, err
	}
	s.index(ctx, p)
	s.Logger.WithFields(logrus.Fields{"post_id": p.ID, "author": actor.ID}).Info("post written")
	return postView(p, actor), nil
}

// idAttempts bounds how often an id collision is retried with a fresh id.
const idAttempts = 3

func (s *PostService) create(ctx context.Context, p *entity.Post) error {
	insert := s.Repo.Create
	if s.Settings.UniqueTitles {
		insert = s.Repo.CreateWithUniqueTitle
	}
	for attempt := 1; ; attempt++ {
		err := insert(ctx, p)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repo.ErrTitleTaken):
			return domain.ErrTitleAlreadyExists
		case errors.Is(err, repo.ErrDuplicate) && attempt < idAttempts:
			p.ID = helpers.NewID()
		default:
			return err
		}
	}
}

func (s *PostService) ensureTitleFree(ctx context.Context, title, excludeID string) error {
	if !s.Settings.UniqueTitles {
		return nil
	}
	taken, err := s.Repo.TitleTaken(ctx, title, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrTitleAlreadyExists
	}
	return nil
}

// GetPost returns a post with its clap totals; MyClaps is filled when apikey resolves.
func (s *PostService) GetPost(ctx context.Context, id, apikey string) (*PostView, error) {
	if id == "" {
		return nil, domain.ErrMissingArguments
	}
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, postLookupErr(err)
	}
	return postView(p, s.Users.Viewer(ctx, apikey)), nil
}

type UpdatePostInput struct {
	APIKey string
	ID     string
	Title  *string
	Body   *string
	Tags   []string // nil leaves tags untouched
}

// UpdatePost applies the supplied fields. Author or administrator only.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*PostView, error) {
	if in.ID == "" {
		return nil, domain.ErrMissingArguments
	}
	actor, err := s.Users.Actor(ctx, in.APIKey)
	if err != nil {
		return nil, err
	}
	var title string
	if in.Title != nil {
		title = normalizeTitle(*in.Title)
	}

	var updated *entity.Post
	err = retryOnConflict(func() error {
		current, err := s.Repo.GetByID(ctx, in.ID)
		if err != nil {
			return postLookupErr(err)
		}
		if err := policy.RequireSelfOrAdmin(actor, current.Author); err != nil {
			return err
		}
		next := current.Clone()
		if title != "" && title != current.Title {
			if err := s.ensureTitleFree(ctx, title, current.ID); err != nil {
				return err
			}
			next.Title = title
		}
		if in.Body != nil && *in.Body != "" {
			next.Body = *in.Body
		}
		if in.Tags != nil {
			next.Tags = normalizeTags(in.Tags)
		}
		next.UpdatedAt = s.now()
		if err := s.Repo.Update(ctx, next); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.ErrPostNotFound
			}
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.index(ctx, updated)
	return postView(updated, actor), nil
}

// RemovePost hard-deletes a post with its claps and comments. Author or administrator only.
func (s *PostService) RemovePost(ctx context.Context, id, apikey string) (*PostView, error) {
	if id == "" {
		return nil, domain.ErrMissingArguments
	}
	actor, err := s.Users.Actor(ctx, apikey)
	if err != nil {
		return nil, err
	}
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, postLookupErr(err)
	}
	if err := policy.RequireSelfOrAdmin(actor, p.Author); err != nil {
		return nil, err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return nil, postLookupErr(err)
	}
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			s.Logger.WithError(err).WithField("post_id", id).Warn("search index delete failed")
		}
	}
	s.Logger.WithFields(logrus.Fields{"post_id": id, "actor_id": actor.ID}).Info("post removed")
	return postView(p, actor), nil
}

type IncrementClapsInput struct {
	APIKey   string
	PostID   string
	NewClaps int
}

// IncrementClaps adds to the caller's clap entry, clamped to [0, MaxClaps].
// Any active user may clap.
func (s *PostService) IncrementClaps(ctx context.Context, in IncrementClapsInput) (*PostView, error) {
	if in.PostID == "" {
		return nil, domain.ErrMissingArguments
	}
	actor, err := s.Users.Actor(ctx, in.APIKey)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetByID(ctx, in.PostID); err != nil {
		return nil, postLookupErr(err)
	}
	// Stored amounts lie in [0, MaxClaps], so a wider delta changes nothing but can overflow.
	delta := max(-s.Settings.MaxClaps, min(in.NewClaps, s.Settings.MaxClaps))
	if _, err := s.Repo.AddClaps(ctx, in.PostID, actor.ID, delta, s.Settings.MaxClaps); err != nil {
		return nil, postLookupErr(err)
	}
	p, err := s.Repo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, postLookupErr(err)
	}
	return postView(p, actor), nil
}

// Page is a window over a post listing: Start posts are skipped, at most End returned.
type Page struct {
	APIKey string
	Start  int
	End    int
}

func (pg Page) bounds() (offset, limit int, err error) {
	if pg.Start < 0 {
		return 0, 0, domain.InvalidArgument("start", "negative")
	}
	if pg.End < 0 {
		return 0, 0, domain.InvalidArgument("end", "negative")
	}
	if pg.End > MaxPageSize {
		return 0, 0, domain.InvalidArgument("end", fmt.Sprintf("at most %d", MaxPageSize))
	}
	limit = pg.End
	if limit == 0 {
		limit = DefaultPageSize
	}
	return pg.Start, limit, nil
}

func (s *PostService) list(ctx context.Context, pg Page, q repo.PostQuery) ([]*PostView, error) {
	offset, limit, err := pg.bounds()
	if err != nil {
		return nil, err
	}
	q.Offset, q.Limit = offset, limit
	posts, err := s.Repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, pg.APIKey, posts), nil
}

func (s *PostService) annotate(ctx context.Context, apikey string, posts []*entity.Post) []*PostView {
	viewer := s.Users.Viewer(ctx, apikey)
	return lo.Map(posts, func(p *entity.Post, _ int) *PostView { return postView(p, viewer) })
}

// GetPostCountRange lists posts newest first.
func (s *PostService) GetPostCountRange(ctx context.Context, pg Page) ([]*PostView, error) {
	return s.list(ctx, pg, repo.PostQuery{})
}

// GetPostsBy lists a user's posts newest first.
func (s *PostService) GetPostsBy(ctx context.Context, userID string, pg Page) ([]*PostView, error) {
	if userID == "" {
		return nil, domain.ErrMissingArguments
	}
	return s.list(ctx, pg, repo.PostQuery{Author: userID})
}

// GetPostsWhereClapped lists posts holding a positive clap entry from userID, newest first.
func (s *PostService) GetPostsWhereClapped(ctx context.Context, userID string, pg Page) ([]*PostView, error) {
	if userID == "" {
		return nil, domain.ErrMissingArguments
	}
	return s.list(ctx, pg, repo.PostQuery{ClappedBy: userID})
}

// SearchPosts runs a weighted full-text search (body and title above tags),
// most relevant first. The external index is preferred when configured; the
// repository's own text search is the fallback.
func (s *PostService) SearchPosts(ctx context.Context, query string, pg Page) ([]*PostView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrMissingArguments
	}
	offset, limit, err := pg.bounds()
	if err != nil {
		return nil, err
	}
	if s.Index != nil {
		ids, err := s.Index.Search(ctx, query, offset, limit)
		if err == nil {
			posts, err := s.Repo.GetByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			return s.annotate(ctx, pg.APIKey, posts), nil
		}
		s.Logger.WithError(err).Warn("search index query failed, using repository search")
	}
	return s.list(ctx, pg, repo.PostQuery{Text: query})
}

func (s *PostService) index(ctx context.Context, p *entity.Post) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, p); err != nil {
		s.Logger.WithError(err).WithField("post_id", p.ID).Warn("search index update failed")
	}
}
