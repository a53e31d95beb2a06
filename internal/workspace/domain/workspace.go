package domain

import "time"

// Membership links an identity to a workspace. This layer is consumed by the
// project resolver, not owned by it: a workspace admin holds project-admin
// authority over every project in the workspace.
type Membership struct {
	ID          string
	WorkspaceID string
	UserID      string
	Role        Role
	Status      Status
	CreatedAt   time.Time
}

// Role is the target-model workspace role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusRemoved Status = "removed"
)

// LegacyRole is a role label from the pre-organization membership model.
// Rows written under that model still exist in storage; they are mapped to
// target roles exactly once, at the repository boundary, so nothing above the
// repository ever branches on legacy labels.
type LegacyRole string

const (
	LegacyRoleOwner  LegacyRole = "OWNER"
	LegacyRoleAdmin  LegacyRole = "ADMIN"
	LegacyRoleEditor LegacyRole = "EDITOR"
	LegacyRoleMember LegacyRole = "MEMBER"
	LegacyRoleViewer LegacyRole = "VIEWER"
)

// LegacyRoleToWorkspaceRole maps a legacy role label to the target model.
// Unknown labels map to viewer: an unrecognized row narrows authority, never
// widens it.
func LegacyRoleToWorkspaceRole(legacy LegacyRole) Role {
	switch legacy {
	case LegacyRoleOwner, LegacyRoleAdmin:
		return RoleAdmin
	case LegacyRoleEditor, LegacyRoleMember:
		return RoleMember
	case LegacyRoleViewer:
		return RoleViewer
	default:
		return RoleViewer
	}
}

// Authority is the cross-layer hint handed to the project resolver.
type Authority struct {
	IsWorkspaceAdmin bool
}
