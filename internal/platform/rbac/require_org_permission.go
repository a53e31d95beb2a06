package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"planhub/backend/internal/permission"
)

// OrgPermissionChecker reports whether a user holds an org permission key.
// Satisfied by the orgaccess resolver.
type OrgPermissionChecker interface {
	HasPermission(ctx context.Context, userID, orgID string, key permission.Key) (bool, error)
}

// RequireOrgPermission ensures the actor holds key in the organization.
// Returns nil on success; a gRPC error (Unauthenticated, PermissionDenied,
// or Internal) on failure. The actor is an explicit parameter: identity is
// verified upstream and handed in, never read from ambient state.
func RequireOrgPermission(ctx context.Context, checker OrgPermissionChecker, actorID, orgID string, key permission.Key) error {
	if actorID == "" || orgID == "" {
		return status.Error(codes.Unauthenticated, "actor and org required")
	}
	ok, err := checker.HasPermission(ctx, actorID, orgID, key)
	if err != nil {
		return status.Error(codes.Internal, "failed to resolve permissions")
	}
	if !ok {
		return status.Errorf(codes.PermissionDenied, "%s required", key)
	}
	return nil
}
