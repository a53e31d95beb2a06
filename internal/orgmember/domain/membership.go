package domain

import (
	"time"
)

// Membership links a user to an organization with a role and lifecycle status.
// Memberships are never hard-deleted; removal is a status transition.
type Membership struct {
	ID        string
	UserID    string
	OrgID     string
	Role      Role
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusInvited Status = "invited"
	StatusRemoved Status = "removed"
)

// IsActive reports whether the membership participates in permission
// resolution. Invited and removed memberships resolve like no membership.
func (m *Membership) IsActive() bool {
	return m != nil && m.Status == StatusActive
}
