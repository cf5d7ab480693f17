package router

import (
	"github.com/oksasatya/go-blog-api/internal/container"
	handlers "github.com/oksasatya/go-blog-api/internal/interface/http"
	"github.com/oksasatya/go-blog-api/internal/interface/middleware"
	"github.com/oksasatya/go-blog-api/internal/router/modules"
)

// InitModules builds the handlers from the container and adds every module to the registry.
// This function should be called once during application startup.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	r.Use(middleware.APIKey())
	if cfg.DebugMetricsEnabled {
		r.Use(middleware.Metrics())
	}

	users := handlers.NewUserHandler(c.Users, c.Logger)
	posts := handlers.NewPostHandler(c.Posts, c.Users, c.Logger)
	comments := handlers.NewCommentHandler(c.Comments, c.Logger)
	blog := handlers.NewBlogHandler(c.Users, handlers.BlogInfo{
		Author:    cfg.BlogAuthor,
		Version:   cfg.BlogVersion,
		BlogTitle: cfg.BlogTitle,
	}, cfg.PublicDomain, c.Logger)

	r.Add(modules.NewUserModule(users, posts))
	r.Add(modules.NewPostModule(posts, comments))
	r.Add(modules.NewBlogModule(blog))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
