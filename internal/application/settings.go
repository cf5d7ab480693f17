package application

import (
	"errors"
	"time"

	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/internal/domain/repository"
)

// Settings carries the core tunables. It is built once from config.Config and
// handed to each service at construction time.
type Settings struct {
	APIKeyTTL         time.Duration
	BcryptCost        int
	MaxClaps          int
	EmailVerification bool
	UniqueTitles      bool
}

// DefaultSettings mirrors the defaults of config.Load.
func DefaultSettings() Settings {
	return Settings{
		APIKeyTTL:  15 * 24 * time.Hour,
		BcryptCost: 10,
		MaxClaps:   50,
	}
}

const maxWriteAttempts = 3

// retryOnConflict reruns a read -> compute -> conditional write cycle while the
// conditional write loses to a concurrent writer.
func retryOnConflict(fn func() error) error {
	for i := 0; i < maxWriteAttempts; i++ {
		err := fn()
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return domain.ErrConflict
}
