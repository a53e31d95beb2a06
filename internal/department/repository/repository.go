package repository

import (
	"context"

	"planhub/backend/internal/department/domain"
)

// Repository defines persistence for departments, their member assignments,
// and their permission grants.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	GetByOrgAndName(ctx context.Context, orgID, name string) (*domain.Department, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Department, error)
	Create(ctx context.Context, d *domain.Department) error
	Update(ctx context.Context, d *domain.Department) error
	// Delete removes the department, its assignments, and its grants in one
	// transaction.
	Delete(ctx context.Context, id string) error

	ListAssignmentsByMembership(ctx context.Context, membershipID string) ([]*domain.Assignment, error)
	ListAssignmentsByDepartment(ctx context.Context, departmentID string) ([]*domain.Assignment, error)
	GetAssignment(ctx context.Context, departmentID, membershipID string) (*domain.Assignment, error)
	CreateAssignment(ctx context.Context, a *domain.Assignment) error
	DeleteAssignment(ctx context.Context, departmentID, membershipID string) error

	ListGrantsByDepartments(ctx context.Context, departmentIDs []string) ([]*domain.PermissionGrant, error)
	GetGrant(ctx context.Context, departmentID, permissionKey string) (*domain.PermissionGrant, error)
	CreateGrant(ctx context.Context, g *domain.PermissionGrant) error
	DeleteGrant(ctx context.Context, departmentID, permissionKey string) error
}
