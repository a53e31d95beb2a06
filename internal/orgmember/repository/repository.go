package repository

import (
	"context"

	"planhub/backend/internal/orgmember/domain"
)

// Repository defines persistence for organization memberships.
type Repository interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
	GetByID(ctx context.Context, id string) (*domain.Membership, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Membership, error)
	Create(ctx context.Context, m *domain.Membership) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
}
