package repository

import (
	"context"

	"planhub/backend/internal/workspace/domain"
)

// Repository reads workspace memberships. The resolver only consumes this
// layer; writes belong to the workspace management surface outside this core.
type Repository interface {
	GetMembershipByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*domain.Membership, error)
}
