package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-blog-api/internal/application"
	"github.com/oksasatya/go-blog-api/internal/interface/middleware"
	"github.com/oksasatya/go-blog-api/pkg/response"
)

type CommentHandler struct {
	Service *application.CommentService
	Logger  *logrus.Logger
}

func NewCommentHandler(s *application.CommentService, logger *logrus.Logger) *CommentHandler {
	return &CommentHandler{Service: s, Logger: logger}
}

type commentRequest struct {
	APIKey string `json:"apikey"`
	Body   string `json:"body"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	cm, err := h.Service.Comment(c.Request.Context(), application.CommentInput{
		APIKey: middleware.APIKeyFrom(c, req.APIKey),
		PostID: c.Param("id"),
		Body:   req.Body,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, cm, "comment added", nil)
}

func (h *CommentHandler) Update(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	cm, err := h.Service.UpdateComment(c.Request.Context(), middleware.APIKeyFrom(c, req.APIKey), c.Param("id"), c.Param("commentId"), req.Body)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cm, "comment updated", nil)
}

func (h *CommentHandler) Remove(c *gin.Context) {
	cm, err := h.Service.RemoveComment(c.Request.Context(), middleware.APIKeyFrom(c, ""), c.Param("id"), c.Param("commentId"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cm, "comment removed", nil)
}
