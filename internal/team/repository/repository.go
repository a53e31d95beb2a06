package repository

import (
	"context"

	"planhub/backend/internal/team/domain"
)

// Repository defines persistence for project teams, team memberships, and
// project permission grants.
type Repository interface {
	GetTeam(ctx context.Context, id string) (*domain.Team, error)
	GetTeamByProjectAndName(ctx context.Context, projectID, name string) (*domain.Team, error)
	ListTeamsByProject(ctx context.Context, projectID string) ([]*domain.Team, error)
	CreateTeam(ctx context.Context, t *domain.Team) error
	UpdateTeam(ctx context.Context, t *domain.Team) error
	// DeleteTeam removes the team, its memberships, and its grants in one
	// transaction.
	DeleteTeam(ctx context.Context, id string) error

	ListMembershipsByUser(ctx context.Context, projectID, userID string) ([]*domain.Membership, error)
	ListMembershipsByTeam(ctx context.Context, teamID string) ([]*domain.Membership, error)
	GetMembership(ctx context.Context, teamID, userID string) (*domain.Membership, error)
	CreateMembership(ctx context.Context, m *domain.Membership) error
	DeleteMembership(ctx context.Context, teamID, userID string) error

	ListGrantsByProject(ctx context.Context, projectID string) ([]*domain.PermissionGrant, error)
	CreateGrant(ctx context.Context, g *domain.PermissionGrant) error
	DeleteGrant(ctx context.Context, id string) error
	DeleteGrantsByTeam(ctx context.Context, teamID string) error
}
