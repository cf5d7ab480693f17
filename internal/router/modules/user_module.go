package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-blog-api/internal/interface/http"
)

// UserModule wires account routes.
// Public: POST /register, POST /login, POST /recover, GET /user
// Apikey: POST /logout, GET /users, PATCH /users/:id
// Listings: GET /users/:id/posts, GET /users/:id/clapped
type UserModule struct {
	Users *handlers.UserHandler
	Posts *handlers.PostHandler
}

func NewUserModule(users *handlers.UserHandler, posts *handlers.PostHandler) *UserModule {
	return &UserModule{Users: users, Posts: posts}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rg.POST("/register", m.Users.Register)
	rg.POST("/login", m.Users.Login)
	rg.POST("/logout", m.Users.Logout)
	rg.POST("/recover", m.Users.Recover)
	rg.GET("/user", m.Users.GetUser)
	rg.GET("/users", m.Users.GetAllUsers)
	rg.PATCH("/users/:id", m.Users.UpdateUser)
	rg.GET("/users/:id/posts", m.Posts.ByUser)
	rg.GET("/users/:id/clapped", m.Posts.ClappedBy)
}
