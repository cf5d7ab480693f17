package entity

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// Clap is one user's accumulated applause on a post. A post holds at most one Clap per user.
type Clap struct {
	UserID string
	Amount int
}

// Post is a blog article with its claps and comments embedded.
type Post struct {
	ID        string
	Title     string
	Author    string
	Body      string
	Tags      []string
	Claps     []Clap
	Comments  []Comment
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalClaps sums every user's clap amount.
func (p *Post) TotalClaps() int {
	return lo.SumBy(p.Claps, func(c Clap) int { return c.Amount })
}

// ClapsBy returns userID's clap amount and whether an entry exists.
func (p *Post) ClapsBy(userID string) (int, bool) {
	for _, c := range p.Claps {
		if c.UserID == userID {
			return c.Amount, true
		}
	}
	return 0, false
}

// Comment looks up an embedded comment by id.
func (p *Post) Comment(id string) (Comment, bool) {
	for _, c := range p.Comments {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = slices.Clone(p.Tags)
	c.Claps = slices.Clone(p.Claps)
	c.Comments = slices.Clone(p.Comments)
	return &c
}
