package entity

import (
	"slices"
	"time"
)

// DefaultAbout is the bio every account starts with.
const DefaultAbout = "Apparently, this user prefers to keep an air of mystery about them."

// APIKey is a bearer session token. A key is valid while ExpiresAt is in the future.
type APIKey struct {
	Token     string
	ExpiresAt time.Time
}

// ValidAt reports whether the key has not yet expired at now.
func (k APIKey) ValidAt(now time.Time) bool {
	return k.ExpiresAt.After(now)
}

// User is the aggregate root for accounts.
// PasswordHash and APIKeys never leave the service layer unredacted.
type User struct {
	ID             string
	Username       string
	Fullname       string
	Email          string
	About          string
	ProfilePicture string
	PasswordHash   string
	APIKeys        []APIKey
	Permissions    []Permission
	Deactivated    bool
	EmailVerified  bool
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Can reports whether the user holds perm.
func (u *User) Can(perm Permission) bool {
	return slices.Contains(u.Permissions, perm)
}

// IsAdmin reports whether the user holds the administrate permission.
func (u *User) IsAdmin() bool {
	return u.Can(PermissionAdministrate)
}

// Key returns the stored key matching token.
func (u *User) Key(token string) (APIKey, bool) {
	for _, k := range u.APIKeys {
		if k.Token == token {
			return k, true
		}
	}
	return APIKey{}, false
}

// HasValidKey reports whether token belongs to the user and is unexpired at now.
func (u *User) HasValidKey(token string, now time.Time) bool {
	k, ok := u.Key(token)
	return ok && k.ValidAt(now)
}

// Clone returns a deep copy so callers can compute a next state without
// touching the snapshot they read.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.APIKeys = slices.Clone(u.APIKeys)
	c.Permissions = slices.Clone(u.Permissions)
	return &c
}
