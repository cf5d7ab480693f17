// Package policy holds the authorization predicates shared by every mutating operation.
package policy

import (
	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

// IsSelfOrAdmin reports whether actor is the owner of ownerID or an administrator.
func IsSelfOrAdmin(actor *entity.User, ownerID string) bool {
	if actor == nil {
		return false
	}
	return actor.ID == ownerID || actor.IsAdmin()
}

// RequireActive fails with ErrUserDeactivated for deactivated accounts.
func RequireActive(actor *entity.User) error {
	if actor == nil {
		return domain.ErrUserNotFound
	}
	if actor.Deactivated {
		return domain.ErrUserDeactivated
	}
	return nil
}

// RequirePermission fails with ErrInsufficientRights unless actor holds perm.
func RequirePermission(actor *entity.User, perm entity.Permission) error {
	if actor == nil || !actor.Can(perm) {
		return domain.ErrInsufficientRights
	}
	return nil
}

// RequireSelfOrAdmin fails with ErrInsufficientRights unless IsSelfOrAdmin holds.
func RequireSelfOrAdmin(actor *entity.User, ownerID string) error {
	if !IsSelfOrAdmin(actor, ownerID) {
		return domain.ErrInsufficientRights
	}
	return nil
}

// CanSeePrivate reports whether viewer may read target's private fields such as email.
func CanSeePrivate(viewer *entity.User, targetID string) bool {
	return viewer != nil && !viewer.Deactivated && IsSelfOrAdmin(viewer, targetID)
}
