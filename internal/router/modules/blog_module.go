package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-blog-api/internal/interface/http"
)

// BlogModule serves /api/info and the /verify/:apikey link sent by mail.
type BlogModule struct {
	Handler *handlers.BlogHandler
}

func NewBlogModule(h *handlers.BlogHandler) *BlogModule {
	return &BlogModule{Handler: h}
}

func (m *BlogModule) Register(rg *gin.RouterGroup) {
	rg.GET("/info", m.Handler.GetInfo)
}

func (m *BlogModule) RegisterRoot(rg *gin.RouterGroup) {
	rg.GET("/verify/:apikey", m.Handler.Verify)
}
