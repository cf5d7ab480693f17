package entity

// Permission is a coarse authorization tag carried by a user.
type Permission string

const (
	PermissionPost         Permission = "post"
	PermissionComment      Permission = "comment"
	PermissionAdministrate Permission = "administrate"
)

// Permissions lists every known tag.
var Permissions = []Permission{PermissionPost, PermissionComment, PermissionAdministrate}

// Valid reports whether p is a known tag.
func (p Permission) Valid() bool {
	switch p {
	case PermissionPost, PermissionComment, PermissionAdministrate:
		return true
	}
	return false
}
