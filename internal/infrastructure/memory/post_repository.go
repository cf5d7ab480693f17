package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/internal/domain/repository"
)

// Field weights for the naive text search; body and title outrank tags.
const (
	weightBody  = 3
	weightTitle = 2
	weightTags  = 1
)

type PostRepository struct {
	mu    sync.RWMutex
	posts map[string]*entity.Post
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[string]*entity.Post)}
}

func (r *PostRepository) Create(_ context.Context, p *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(p)
}

func (r *PostRepository) CreateWithUniqueTitle(_ context.Context, p *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.titleTaken(p.Title, "") {
		return repository.ErrTitleTaken
	}
	return r.insert(p)
}

// insert requires r.mu held for writing.
func (r *PostRepository) insert(p *entity.Post) error {
	if _, ok := r.posts[p.ID]; ok {
		return repository.ErrDuplicate
	}
	stored := p.Clone()
	stored.Version = 1
	r.posts[p.ID] = stored
	p.Version = 1
	return nil
}

func (r *PostRepository) GetByID(_ context.Context, id string) (*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PostRepository) GetByIDs(_ context.Context, ids []string) ([]*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *PostRepository) TitleTaken(_ context.Context, title, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.titleTaken(title, excludeID), nil
}

func (r *PostRepository) titleTaken(title, excludeID string) bool {
	for _, p := range r.posts {
		if p.ID != excludeID && strings.EqualFold(p.Title, title) {
			return true
		}
	}
	return false
}

func (r *PostRepository) Update(_ context.Context, p *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.posts[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Version != p.Version {
		return repository.ErrConflict
	}
	cur.Title = p.Title
	cur.Body = p.Body
	cur.Tags = slices.Clone(p.Tags)
	cur.UpdatedAt = p.UpdatedAt
	cur.Version++
	p.Version = cur.Version
	return nil
}

func (r *PostRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *PostRepository) List(_ context.Context, q repository.PostQuery) ([]*entity.Post, error) {
	r.mu.RLock()
	type hit struct {
		post  *entity.Post
		score int
	}
	var hits []hit
	terms := strings.Fields(strings.ToLower(q.Text))
	for _, p := range r.posts {
		if q.Author != "" && p.Author != q.Author {
			continue
		}
		if q.ClappedBy != "" {
			if n, ok := p.ClapsBy(q.ClappedBy); !ok || n <= 0 {
				continue
			}
		}
		score := 0
		if len(terms) > 0 {
			if score = textScore(p, terms); score == 0 {
				continue
			}
		}
		hits = append(hits, hit{post: p.Clone(), score: score})
	}
	r.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].post.CreatedAt.After(hits[j].post.CreatedAt)
	})

	out := make([]*entity.Post, 0, len(hits))
	for i := q.Offset; i < len(hits) && len(out) < q.Limit; i++ {
		out = append(out, hits[i].post)
	}
	return out, nil
}

func textScore(p *entity.Post, terms []string) int {
	title := strings.ToLower(p.Title)
	body := strings.ToLower(p.Body)
	tags := strings.ToLower(strings.Join(p.Tags, " "))
	score := 0
	for _, t := range terms {
		score += weightTitle*strings.Count(title, t) + weightBody*strings.Count(body, t) + weightTags*strings.Count(tags, t)
	}
	return score
}

func (r *PostRepository) AddClaps(_ context.Context, postID, userID string, delta, ceiling int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	for i := range p.Claps {
		if p.Claps[i].UserID == userID {
			p.Claps[i].Amount = clamp(p.Claps[i].Amount+delta, ceiling)
			return p.Claps[i].Amount, nil
		}
	}
	amount := clamp(delta, ceiling)
	p.Claps = append(p.Claps, entity.Clap{UserID: userID, Amount: amount})
	return amount, nil
}

func clamp(v, ceiling int) int {
	return max(0, min(v, ceiling))
}

func (r *PostRepository) AddComment(_ context.Context, c entity.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[c.PostID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Comments = append(p.Comments, c)
	return nil
}

func (r *PostRepository) UpdateCommentBody(_ context.Context, postID, commentID, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			p.Comments[i].Body = body
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *PostRepository) RemoveComment(_ context.Context, postID, commentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return repository.ErrNotFound
	}
	i := slices.IndexFunc(p.Comments, func(c entity.Comment) bool { return c.ID == commentID })
	if i < 0 {
		return repository.ErrNotFound
	}
	p.Comments = slices.Delete(p.Comments, i, i+1)
	return nil
}

var _ repository.PostRepository = (*PostRepository)(nil)
