package domain

import (
	"errors"
	"time"

	"planhub/backend/internal/permission"
)

// Team is a project-scoped grouping used to assign project permissions
// collectively. Teams never span projects or workspaces.
type Team struct {
	ID        string
	ProjectID string
	Name      string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the team for persistence.
func (t *Team) Validate() error {
	if t.ProjectID == "" {
		return errors.New("project_id is required")
	}
	if t.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// Membership links a user to a team within one project. A user may belong to
// several teams of the same project.
type Membership struct {
	ID            string
	ProjectID     string
	TeamID        string
	UserID        string
	TeamRoleLabel string
	CreatedAt     time.Time
}

// ErrGrantTarget is returned when a permission grant does not target exactly
// one of team or user.
var ErrGrantTarget = errors.New("grant must target exactly one of team or user")

// PermissionGrant assigns one project permission key to a team or directly to
// a user. Exactly one of TeamID and UserID must be set.
type PermissionGrant struct {
	ID            string
	ProjectID     string
	PermissionKey permission.Key
	TeamID        string
	UserID        string
	GrantedBy     string
	GrantedAt     time.Time
}

// Validate enforces the grant target exclusivity invariant and key vocabulary.
func (g *PermissionGrant) Validate() error {
	if g.ProjectID == "" {
		return errors.New("project_id is required")
	}
	if (g.TeamID == "") == (g.UserID == "") {
		return ErrGrantTarget
	}
	if !permission.ValidProjectKey(g.PermissionKey) {
		return errors.New("unknown project permission key")
	}
	return nil
}
