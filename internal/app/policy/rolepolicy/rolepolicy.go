// Package rolepolicy maps a membership role to its capability set.
//
// Capability rules:
//   - Admins can invite members, create/modify group tasks, upload/delete
//     files, and view everything
//   - Editors can create/modify group tasks and upload/delete files
//   - Viewers can only view
//   - A user with no active membership (RoleNone) has no capabilities and
//     must not be able to open the group at all
//
// Everything here is a pure function of the role; the authoritative role
// lookup lives in the collab package.
package rolepolicy

import "strings"

// Role is a membership capability tier.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"

	// RoleNone marks the absence of an active membership. It is never
	// stored; it is the zero outcome of a role lookup.
	RoleNone Role = ""
)

// Parse normalizes a stored role string. Unknown or empty values map to
// RoleNone so a corrupt document fails closed.
func Parse(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleEditor:
		return RoleEditor
	case RoleViewer:
		return RoleViewer
	default:
		return RoleNone
	}
}

// IsValid reports whether r is one of the three storable roles.
func IsValid(r Role) bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}

// CanView reports whether the role may open the group and read all tabs.
func CanView(r Role) bool {
	return IsValid(r)
}

// CanEditContent reports whether the role may create or modify group tasks
// and upload or delete group files.
func CanEditContent(r Role) bool {
	return r == RoleAdmin || r == RoleEditor
}

// CanManageMembers reports whether the role may invite members.
func CanManageMembers(r Role) bool {
	return r == RoleAdmin
}
