// Package gcs stores processed profile pictures in Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/pkg/helpers"
	"github.com/oksasatya/go-blog-api/pkg/imaging"
)

// AvatarStore normalizes an upload to a 240x240 PNG and returns where it lives:
// a public bucket URL when a client and bucket are configured, an inline data
// URI otherwise.
type AvatarStore struct {
	client *storage.Client
	bucket string
	upload func(ctx context.Context, objectPath string, png []byte) (string, error)
}

func NewAvatarStore(client *storage.Client, bucket string) *AvatarStore {
	s := &AvatarStore{client: client, bucket: bucket}
	if client != nil && bucket != "" {
		s.upload = func(ctx context.Context, objectPath string, png []byte) (string, error) {
			return helpers.UploadObject(ctx, client, bucket, objectPath, "image/png", bytes.NewReader(png))
		}
	}
	return s
}

func (s *AvatarStore) Transform(ctx context.Context, userID, encoded string) (string, error) {
	png, err := imaging.Avatar(encoded)
	if err != nil {
		if errors.Is(err, imaging.ErrTooLarge) {
			return "", domain.InvalidArgument("profilePicture", "too large")
		}
		return "", domain.InvalidArgument("profilePicture", "not an image")
	}
	if s.upload == nil {
		return imaging.DataURI(png), nil
	}
	url, err := s.upload(ctx, fmt.Sprintf("avatars/%s/%s.png", userID, uuid.NewString()), png)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return url, nil
}
