package domain

import (
	"errors"
	"time"

	"planhub/backend/internal/permission"
)

// Department is an organization-scoped grouping that owns permission grants.
// Org members join departments through Assignment rows (many-to-many) and
// inherit the union of every grant owned by their departments.
type Department struct {
	ID        string
	OrgID     string
	Name      string
	Color     string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the department for persistence.
func (d *Department) Validate() error {
	if d.OrgID == "" {
		return errors.New("org_id is required")
	}
	if d.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// Assignment links an org membership to a department.
type Assignment struct {
	ID           string
	DepartmentID string
	MembershipID string
	CreatedAt    time.Time
}

// PermissionGrant is an organization permission key owned by a department.
// A grant has no existence outside its owning department.
type PermissionGrant struct {
	ID            string
	DepartmentID  string
	PermissionKey permission.Key
	GrantedBy     string
	GrantedAt     time.Time
}
