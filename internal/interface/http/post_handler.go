package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-blog-api/internal/application"
	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/internal/interface/middleware"
	"github.com/oksasatya/go-blog-api/pkg/response"
)

type PostHandler struct {
	Posts  *application.PostService
	Users  *application.UserService
	Logger *logrus.Logger
}

func NewPostHandler(posts *application.PostService, users *application.UserService, logger *logrus.Logger) *PostHandler {
	return &PostHandler{Posts: posts, Users: users, Logger: logger}
}

// postResponse is a post plus its author's public record.
type postResponse struct {
	*application.PostView
	User *application.UserView `json:"user,omitempty"`
}

// withAuthors resolves each distinct author once. Authors that cannot be
// resolved are left out rather than failing the listing.
func (h *PostHandler) withAuthors(ctx context.Context, posts []*application.PostView) []postResponse {
	authors := make(map[string]*application.UserView)
	for _, id := range lo.Uniq(lo.Map(posts, func(p *application.PostView, _ int) string { return p.Author })) {
		u, err := h.Users.GetUser(ctx, application.GetUserInput{ID: id})
		if err != nil {
			h.Logger.WithError(err).WithField("user_id", id).Debug("post author unresolved")
			continue
		}
		authors[id] = u
	}
	return lo.Map(posts, func(p *application.PostView, _ int) postResponse {
		return postResponse{PostView: p, User: authors[p.Author]}
	})
}

func (h *PostHandler) one(ctx context.Context, p *application.PostView) postResponse {
	return h.withAuthors(ctx, []*application.PostView{p})[0]
}

type writePostRequest struct {
	APIKey string   `json:"apikey"`
	Title  string   `json:"title" binding:"omitempty,title"`
	Body   string   `json:"body"`
	Tags   []string `json:"tags"`
}

// Write creates a post for the caller.
func (h *PostHandler) Write(c *gin.Context) {
	var req writePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	p, err := h.Posts.WritePost(c.Request.Context(), application.WritePostInput{
		APIKey: middleware.APIKeyFrom(c, req.APIKey),
		Title:  req.Title,
		Body:   req.Body,
		Tags:   req.Tags,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, h.one(c.Request.Context(), p), "post written", nil)
}

// Get returns one post annotated for the caller.
func (h *PostHandler) Get(c *gin.Context) {
	p, err := h.Posts.GetPost(c.Request.Context(), c.Param("id"), middleware.APIKeyFrom(c, ""))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, h.one(c.Request.Context(), p), "", nil)
}

type updatePostRequest struct {
	APIKey string   `json:"apikey"`
	Title  *string  `json:"title" binding:"omitempty,title"`
	Body   *string  `json:"body"`
	Tags   []string `json:"tags"`
}

// Update changes title, body or tags of a post.
func (h *PostHandler) Update(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	p, err := h.Posts.UpdatePost(c.Request.Context(), application.UpdatePostInput{
		APIKey: middleware.APIKeyFrom(c, req.APIKey),
		ID:     c.Param("id"),
		Title:  req.Title,
		Body:   req.Body,
		Tags:   req.Tags,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, h.one(c.Request.Context(), p), "post updated", nil)
}

// Remove deletes a post with its claps and comments.
func (h *PostHandler) Remove(c *gin.Context) {
	p, err := h.Posts.RemovePost(c.Request.Context(), c.Param("id"), middleware.APIKeyFrom(c, ""))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "post removed", nil)
}

type clapRequest struct {
	APIKey   string `json:"apikey"`
	NewClaps *int   `json:"newClaps"`
}

// Clap adds (or with a negative amount, withdraws) the caller's claps.
func (h *PostHandler) Clap(c *gin.Context) {
	var req clapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	if req.NewClaps == nil {
		fail(c, h.Logger, domain.ErrPartialArguments)
		return
	}
	p, err := h.Posts.IncrementClaps(c.Request.Context(), application.IncrementClapsInput{
		APIKey:   middleware.APIKeyFrom(c, req.APIKey),
		PostID:   c.Param("id"),
		NewClaps: *req.NewClaps,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, h.one(c.Request.Context(), p), "claps updated", nil)
}

type pageQuery struct {
	Start int    `form:"start"`
	End   int    `form:"end"`
	Query string `form:"query"`
}

func (h *PostHandler) page(c *gin.Context) (pageQuery, application.Page, bool) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalidPayload(c, err)
		return q, application.Page{}, false
	}
	return q, application.Page{APIKey: middleware.APIKeyFrom(c, ""), Start: q.Start, End: q.End}, true
}

func (h *PostHandler) listed(c *gin.Context, q pageQuery, posts []*application.PostView, err error) {
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, h.withAuthors(c.Request.Context(), posts), "", map[string]any{
		"start": q.Start,
		"count": len(posts),
	})
}

// List returns posts newest first.
func (h *PostHandler) List(c *gin.Context) {
	q, pg, ok := h.page(c)
	if !ok {
		return
	}
	posts, err := h.Posts.GetPostCountRange(c.Request.Context(), pg)
	h.listed(c, q, posts, err)
}

// Search returns posts by relevance to the query.
func (h *PostHandler) Search(c *gin.Context) {
	q, pg, ok := h.page(c)
	if !ok {
		return
	}
	posts, err := h.Posts.SearchPosts(c.Request.Context(), q.Query, pg)
	h.listed(c, q, posts, err)
}

// ByUser returns the posts written by the user in the path.
func (h *PostHandler) ByUser(c *gin.Context) {
	q, pg, ok := h.page(c)
	if !ok {
		return
	}
	posts, err := h.Posts.GetPostsBy(c.Request.Context(), c.Param("id"), pg)
	h.listed(c, q, posts, err)
}

// ClappedBy returns the posts the user in the path has clapped for.
func (h *PostHandler) ClappedBy(c *gin.Context) {
	q, pg, ok := h.page(c)
	if !ok {
		return
	}
	posts, err := h.Posts.GetPostsWhereClapped(c.Request.Context(), c.Param("id"), pg)
	h.listed(c, q, posts, err)
}
