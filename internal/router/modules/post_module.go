package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-blog-api/internal/interface/http"
)

// PostModule wires posts, claps and the comments nested under a post.
type PostModule struct {
	Posts    *handlers.PostHandler
	Comments *handlers.CommentHandler
}

func NewPostModule(posts *handlers.PostHandler, comments *handlers.CommentHandler) *PostModule {
	return &PostModule{Posts: posts, Comments: comments}
}

func (m *PostModule) Register(rg *gin.RouterGroup) {
	posts := rg.Group("/posts")
	posts.POST("", m.Posts.Write)
	posts.GET("", m.Posts.List)
	posts.GET("/search", m.Posts.Search)
	posts.GET("/:id", m.Posts.Get)
	posts.PATCH("/:id", m.Posts.Update)
	posts.DELETE("/:id", m.Posts.Remove)
	posts.POST("/:id/claps", m.Posts.Clap)

	posts.POST("/:id/comments", m.Comments.Create)
	posts.PATCH("/:id/comments/:commentId", m.Comments.Update)
	posts.DELETE("/:id/comments/:commentId", m.Comments.Remove)
}
