package repository

import (
	"context"

	"planhub/backend/internal/project/domain"
)

// Repository defines persistence for projects and project memberships.
type Repository interface {
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	CreateProject(ctx context.Context, p *domain.Project) error

	GetMembershipByUserAndProject(ctx context.Context, userID, projectID string) (*domain.Membership, error)
	ListMembershipsByProject(ctx context.Context, projectID string) ([]*domain.Membership, error)
	CreateMembership(ctx context.Context, m *domain.Membership) error
	UpdateMembershipStatus(ctx context.Context, id string, status domain.Status) error
	UpdateMembershipRole(ctx context.Context, id string, role domain.Role) error
}
