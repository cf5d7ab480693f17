package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-blog-api/internal/application"
	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/internal/interface/middleware"
	"github.com/oksasatya/go-blog-api/pkg/response"
)

type UserHandler struct {
	Service *application.UserService
	Logger  *logrus.Logger
}

func NewUserHandler(s *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Service: s, Logger: logger}
}

type registerRequest struct {
	Username string `json:"username" binding:"omitempty,username"`
	Password string `json:"password" binding:"omitempty,pwd"`
	Fullname string `json:"fullname" binding:"omitempty,fullname"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// Register creates an account. The apikey is only returned when email verification is off.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	u, err := h.Service.Register(c.Request.Context(), application.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Fullname: req.Fullname,
		Email:    req.Email,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, u, "user registered", nil)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	APIKey   string `json:"apikey"`
}

// Login authenticates with username and password, or re-validates an apikey.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		invalidPayload(c, err)
		return
	}
	in := application.LoginInput{Username: req.Username, Password: req.Password, APIKey: req.APIKey}
	if in.APIKey == "" && in.Username == "" && in.Password == "" {
		in.APIKey = middleware.APIKeyFrom(c, "")
	}
	u, err := h.Service.Login(c.Request.Context(), in)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "login successful", nil)
}

type apikeyRequest struct {
	APIKey string `json:"apikey"`
}

// Logout expires the apikey the request was made with.
func (h *UserHandler) Logout(c *gin.Context) {
	var req apikeyRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		invalidPayload(c, err)
		return
	}
	ok, err := h.Service.Logout(c.Request.Context(), middleware.APIKeyFrom(c, req.APIKey))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"loggedOut": ok}, "logged out", nil)
}

type getUserQuery struct {
	Username string `form:"username"`
	ID       string `form:"id"`
}

// GetUser looks a user up by username or id. Without either the caller's own record is returned.
func (h *UserHandler) GetUser(c *gin.Context) {
	var q getUserQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalidPayload(c, err)
		return
	}
	u, err := h.Service.GetUser(c.Request.Context(), application.GetUserInput{
		Username: q.Username,
		ID:       q.ID,
		APIKey:   middleware.APIKeyFrom(c, ""),
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "", nil)
}

// GetAllUsers lists every other account. Administrators only.
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.Service.GetAllUsers(c.Request.Context(), middleware.APIKeyFrom(c, ""))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, users, "", map[string]any{"count": len(users)})
}

type updateUserRequest struct {
	APIKey         string   `json:"apikey"`
	Fullname       *string  `json:"fullname" binding:"omitempty,fullname"`
	Email          *string  `json:"email" binding:"omitempty,email"`
	Password       *string  `json:"password" binding:"omitempty,pwd"`
	About          *string  `json:"about"`
	ProfilePicture *string  `json:"profilePicture"`
	Permissions    []string `json:"permissions" binding:"omitempty,dive,permission"`
	Deactivated    *bool    `json:"deactivated"`
}

// UpdateUser applies the supplied fields to the user named in the path.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	in := application.UpdateUserInput{
		APIKey:         middleware.APIKeyFrom(c, req.APIKey),
		ID:             c.Param("id"),
		Fullname:       req.Fullname,
		Email:          req.Email,
		Password:       req.Password,
		About:          req.About,
		ProfilePicture: req.ProfilePicture,
		Deactivated:    req.Deactivated,
	}
	if req.Permissions != nil {
		in.Permissions = lo.Map(req.Permissions, func(p string, _ int) entity.Permission { return entity.Permission(p) })
	}
	u, err := h.Service.UpdateUser(c.Request.Context(), in)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "user updated", nil)
}

type recoverRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

// Recover mails a fresh apikey to the owner of a verified address.
func (h *UserHandler) Recover(c *gin.Context) {
	var req recoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	ok, err := h.Service.RecoverPassword(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"sent": ok}, "recovery mail sent", nil)
}
