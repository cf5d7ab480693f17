package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-blog-api/config"
	"github.com/oksasatya/go-blog-api/internal/application"
	repo "github.com/oksasatya/go-blog-api/internal/domain/repository"
	esinfra "github.com/oksasatya/go-blog-api/internal/infrastructure/elasticsearch"
	"github.com/oksasatya/go-blog-api/internal/infrastructure/gcs"
	"github.com/oksasatya/go-blog-api/internal/infrastructure/mail"
	"github.com/oksasatya/go-blog-api/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-blog-api/internal/infrastructure/postgres"
	redisinfra "github.com/oksasatya/go-blog-api/internal/infrastructure/redis"
	mailtpl "github.com/oksasatya/go-blog-api/pkg/mailer/templates"
)

// Infra holds the external clients opened by cmd/main. Any of them may be nil;
// the matching feature then falls back or is switched off.
type Infra struct {
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	GCS       *storage.Client
	ES        *elasticsearch.Client
	Publisher mail.JobPublisher
}

// Container owns the constructed application graph.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	UserRepo repo.UserRepository
	PostRepo repo.PostRepository
	Index    *esinfra.PostIndex

	Users    *application.UserService
	Posts    *application.PostService
	Comments *application.CommentService
}

// Settings converts the loaded configuration into the services' tunables.
func Settings(cfg *config.Config) application.Settings {
	s := application.DefaultSettings()
	if cfg.APIKeyTTL > 0 {
		s.APIKeyTTL = cfg.APIKeyTTL
	}
	if cfg.BcryptCost > 0 {
		s.BcryptCost = cfg.BcryptCost
	}
	if cfg.MaxClaps > 0 {
		s.MaxClaps = cfg.MaxClaps
	}
	s.EmailVerification = cfg.EmailVerification
	s.UniqueTitles = cfg.UniqueTitles
	return s
}

// Branding is the mail template branding derived from the configuration.
func Branding(cfg *config.Config) mailtpl.Branding {
	return mailtpl.Branding{
		AppName:        cfg.AppName,
		BlogTitle:      cfg.BlogTitle,
		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,
	}
}

// New wires repositories, collaborators and services.
func New(cfg *config.Config, logger *logrus.Logger, infra Infra) *Container {
	c := &Container{Config: cfg, Logger: logger}

	if infra.Pool != nil && !cfg.UseMemoryStore() {
		c.UserRepo = pginfra.NewUserRepository(infra.Pool)
		c.PostRepo = pginfra.NewPostRepository(infra.Pool)
	} else {
		logger.Warn("using in-memory repositories, data is not persisted")
		c.UserRepo = memory.NewUserRepository()
		c.PostRepo = memory.NewPostRepository()
	}

	settings := Settings(cfg)

	// Optional collaborators stay untyped nil when absent so the services can test for them.
	var (
		mailer   application.Mailer
		sessions application.SessionCache
		index    application.PostIndex
	)
	if infra.Publisher != nil && cfg.MailSendEnabled {
		mailer = mail.NewQueueMailer(infra.Publisher, Branding(cfg), cfg.VerifyEmailURL, cfg.ResetPasswordURL)
	}
	if infra.Redis != nil && cfg.SessionTTL > 0 {
		sessions = redisinfra.NewSessionCache(infra.Redis, cfg.SessionTTL)
	}
	if infra.ES != nil {
		c.Index = esinfra.NewPostIndex(infra.ES, cfg.ESPostsIndex)
		index = c.Index
	}
	images := gcs.NewAvatarStore(infra.GCS, cfg.GCSBucket)

	c.Users = application.NewUserService(c.UserRepo, settings, mailer, images, sessions, logger)
	c.Posts = application.NewPostService(c.PostRepo, c.Users, index, settings, logger)
	c.Comments = application.NewCommentService(c.PostRepo, c.Users, logger)
	return c
}
