package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"planhub/backend/internal/orgmember/domain"
)

// OrgMembershipGetter returns a user's membership in an org. Used by RequireOrgAdmin to resolve actor role.
type OrgMembershipGetter interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
}

// RequireOrgAdmin ensures the actor has role owner or admin in the organization.
// Intended for surfaces reserved to org administration regardless of granted
// permission keys. Returns nil on success; a gRPC error on failure.
func RequireOrgAdmin(ctx context.Context, getter OrgMembershipGetter, actorID, orgID string) error {
	if actorID == "" || orgID == "" {
		return status.Error(codes.Unauthenticated, "actor and org required")
	}
	m, err := getter.GetByUserAndOrg(ctx, actorID, orgID)
	if err != nil {
		return status.Error(codes.Internal, "failed to resolve membership")
	}
	if !m.IsActive() {
		return status.Error(codes.PermissionDenied, "not a member of this organization")
	}
	if m.Role != domain.RoleOwner && m.Role != domain.RoleAdmin {
		return status.Error(codes.PermissionDenied, "organization admin or owner required")
	}
	return nil
}
