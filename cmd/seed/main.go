package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-blog-api/config"
	"github.com/oksasatya/go-blog-api/internal/application"
	"github.com/oksasatya/go-blog-api/internal/container"
	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	pginfra "github.com/oksasatya/go-blog-api/internal/infrastructure/postgres"
	"github.com/oksasatya/go-blog-api/pkg/helpers"
)

// seed creates an administrator account, or restores its permissions and
// activation if it already exists.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	username := flag.String("username", "admin", "administrator username")
	password := flag.String("password", "password123", "administrator password")
	fullname := flag.String("fullname", "Blog Admin", "administrator full name")
	email := flag.String("email", "admin@example.com", "administrator email")
	flag.Parse()

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Seeding never sends mail and never waits for verification.
	cfg.EmailVerification = false
	c := container.New(cfg, logger, container.Infra{Pool: pool})

	_, err = c.Users.Register(ctx, application.RegisterInput{
		Username: *username,
		Password: *password,
		Fullname: *fullname,
		Email:    *email,
	})
	if err != nil && !errors.Is(err, domain.ErrUserAlreadyExists) {
		logger.Fatalf("failed to seed user: %v", err)
	}

	u, err := c.UserRepo.GetByUsername(ctx, *username)
	if err != nil {
		logger.Fatalf("failed to load seeded user: %v", err)
	}
	u.Permissions = append([]entity.Permission{}, entity.Permissions...)
	u.Deactivated = false
	u.EmailVerified = true
	if err := c.UserRepo.Update(ctx, u); err != nil {
		logger.Fatalf("failed to grant administrate: %v", err)
	}
	fmt.Printf("seeded administrator: id=%s username=%s email=%s\n", u.ID, u.Username, u.Email)
}
