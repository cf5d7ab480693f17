package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

func TestIsSelfOrAdmin(t *testing.T) {
	author := &entity.User{ID: "_author0001", Permissions: []entity.Permission{entity.PermissionPost}}
	admin := &entity.User{ID: "_admin00001", Permissions: []entity.Permission{entity.PermissionAdministrate}}
	other := &entity.User{ID: "_other00001", Permissions: []entity.Permission{entity.PermissionComment}}

	tests := []struct {
		name  string
		actor *entity.User
		owner string
		want  bool
	}{
		{"owner", author, author.ID, true},
		{"admin on foreign resource", admin, author.ID, true},
		{"stranger", other, author.ID, false},
		{"nil actor", nil, author.ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSelfOrAdmin(tt.actor, tt.owner))
			if tt.want {
				assert.NoError(t, RequireSelfOrAdmin(tt.actor, tt.owner))
			} else {
				assert.ErrorIs(t, RequireSelfOrAdmin(tt.actor, tt.owner), domain.ErrInsufficientRights)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	u := &entity.User{Permissions: []entity.Permission{entity.PermissionComment}}
	require.NoError(t, RequirePermission(u, entity.PermissionComment))
	require.ErrorIs(t, RequirePermission(u, entity.PermissionPost), domain.ErrInsufficientRights)
	require.ErrorIs(t, RequirePermission(nil, entity.PermissionPost), domain.ErrInsufficientRights)
}

func TestRequireActive(t *testing.T) {
	require.NoError(t, RequireActive(&entity.User{}))
	require.ErrorIs(t, RequireActive(&entity.User{Deactivated: true}), domain.ErrUserDeactivated)
}

func TestCanSeePrivate(t *testing.T) {
	admin := &entity.User{ID: "_admin00001", Permissions: []entity.Permission{entity.PermissionAdministrate}}
	assert.True(t, CanSeePrivate(admin, "_someone001"))

	admin.Deactivated = true
	assert.False(t, CanSeePrivate(admin, "_someone001"))
	assert.False(t, CanSeePrivate(nil, "_someone001"))
}
