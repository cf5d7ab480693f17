package application

import (
	"time"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

// UserView is the redacted user record returned across the boundary.
type UserView struct {
	ID             string              `json:"id"`
	Username       string              `json:"username"`
	Fullname       string              `json:"fullname"`
	Email          string              `json:"email,omitempty"`
	About          string              `json:"about"`
	ProfilePicture string              `json:"profilePicture,omitempty"`
	Permissions    []entity.Permission `json:"permissions"`
	Deactivated    bool                `json:"deactivated"`
	EmailVerified  bool                `json:"emailVerified"`
	APIKey         string              `json:"apikey,omitempty"`
}

// redact strips the hash and the token list, and the email unless showEmail.
func redact(u *entity.User, showEmail bool) *UserView {
	v := &UserView{
		ID:             u.ID,
		Username:       u.Username,
		Fullname:       u.Fullname,
		About:          u.About,
		ProfilePicture: u.ProfilePicture,
		Permissions:    append([]entity.Permission{}, u.Permissions...),
		Deactivated:    u.Deactivated,
		EmailVerified:  u.EmailVerified,
	}
	if showEmail {
		v.Email = u.Email
	}
	return v
}

// CommentView is a comment as returned across the boundary.
type CommentView struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postid"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func commentView(c entity.Comment) *CommentView {
	return &CommentView{ID: c.ID, PostID: c.PostID, Author: c.Author, Body: c.Body, Timestamp: c.CreatedAt}
}

// PostView is a post annotated for a specific caller.
// MyClaps is only set when the caller is known.
type PostView struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Author     string        `json:"author"`
	Body       string        `json:"body"`
	Tags       []string      `json:"tags"`
	Timestamp  time.Time     `json:"timestamp"`
	TotalClaps int           `json:"totalClaps"`
	MyClaps    *int          `json:"myClaps,omitempty"`
	Comments   []CommentView `json:"comments"`
}

func postView(p *entity.Post, viewer *entity.User) *PostView {
	v := &PostView{
		ID:         p.ID,
		Title:      p.Title,
		Author:     p.Author,
		Body:       p.Body,
		Tags:       append([]string{}, p.Tags...),
		Timestamp:  p.CreatedAt,
		TotalClaps: p.TotalClaps(),
		Comments:   make([]CommentView, 0, len(p.Comments)),
	}
	if viewer != nil {
		mine, _ := p.ClapsBy(viewer.ID)
		v.MyClaps = &mine
	}
	for _, c := range p.Comments {
		v.Comments = append(v.Comments, *commentView(c))
	}
	return v
}
