package helpers

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns a public identifier of the form "_" followed by nine base36 characters.
// Users, posts and comments share the format; lookups are always scoped by kind.
func NewID() string {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		panic("helpers: crypto/rand unavailable: " + err.Error())
	}
	out := make([]byte, 10)
	out[0] = '_'
	for i, v := range b {
		out[i+1] = idAlphabet[int(v)%len(idAlphabet)]
	}
	return string(out)
}

// GenToken returns n random bytes encoded as unpadded base64url.
func GenToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// APIKeyBytes is the entropy of a session token; encoded it is 43 characters long.
const APIKeyBytes = 32

// NewAPIKey mints a session token that expires ttl after now.
func NewAPIKey(now time.Time, ttl time.Duration) (entity.APIKey, error) {
	tok, err := GenToken(APIKeyBytes)
	if err != nil {
		return entity.APIKey{}, err
	}
	return entity.APIKey{Token: tok, ExpiresAt: now.Add(ttl)}, nil
}
