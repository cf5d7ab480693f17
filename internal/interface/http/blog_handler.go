package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-blog-api/internal/application"
	"github.com/oksasatya/go-blog-api/pkg/response"
)

// BlogInfo is served by /api/info.
type BlogInfo struct {
	Author    string `json:"author"`
	Version   string `json:"version"`
	BlogTitle string `json:"blogTitle"`
}

// BlogHandler serves the blog metadata and the email verification side entry.
type BlogHandler struct {
	Users        *application.UserService
	Info         BlogInfo
	PublicDomain string
	Logger       *logrus.Logger
}

func NewBlogHandler(users *application.UserService, info BlogInfo, publicDomain string, logger *logrus.Logger) *BlogHandler {
	return &BlogHandler{Users: users, Info: info, PublicDomain: strings.TrimRight(publicDomain, "/"), Logger: logger}
}

func (h *BlogHandler) GetInfo(c *gin.Context) {
	response.Success(c, http.StatusOK, h.Info, "", nil)
}

// Verify redeems the token from a verification mail and sends the browser to
// the login page, or to the front page when the token is unusable.
func (h *BlogHandler) Verify(c *gin.Context) {
	target := h.PublicDomain + "/login"
	if err := h.Users.VerifyUser(c.Request.Context(), c.Param("apikey")); err != nil {
		h.Logger.WithError(err).Info("email verification failed")
		target = h.PublicDomain + "/"
	}
	c.Redirect(http.StatusFound, target)
}
