package domain

import (
	"errors"
	"time"
)

// Project is the unit of work inside a workspace. The workspace link matters
// to resolution: workspace admins hold project-admin authority over every
// project in their workspace.
type Project struct {
	ID          string
	WorkspaceID string
	Name        string
	CreatedAt   time.Time
}

// Validate validates the project for persistence.
func (p *Project) Validate() error {
	if p.WorkspaceID == "" {
		return errors.New("workspace_id is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// Membership links a user to a project with a role and lifecycle status.
// A membership row is required for any project access, regardless of grants.
type Membership struct {
	ID        string
	ProjectID string
	UserID    string
	Role      Role
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Role string

const (
	RoleOwner  Role = "project_owner"
	RoleAdmin  Role = "project_admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusInvited Status = "invited"
	StatusRemoved Status = "removed"
)

// IsActive reports whether the membership participates in resolution.
func (m *Membership) IsActive() bool {
	return m != nil && m.Status == StatusActive
}
