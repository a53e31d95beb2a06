package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"planhub/backend/internal/permission"
	"planhub/backend/internal/projectaccess"
)

// ProjectAccessResolver resolves a user's project access profile. Satisfied
// by the projectaccess resolver.
type ProjectAccessResolver interface {
	ResolveAccess(ctx context.Context, userID, projectID string) (*projectaccess.ProjectAccess, error)
}

// RequireProjectPermission ensures the actor holds key in the project.
// Admin and owner roles, and workspace admins, pass every key through the
// resolver's full-universe bypass. Returns nil on success; a gRPC error
// (Unauthenticated, PermissionDenied, or Internal) on failure.
func RequireProjectPermission(ctx context.Context, resolver ProjectAccessResolver, actorID, projectID string, key permission.Key) error {
	if actorID == "" || projectID == "" {
		return status.Error(codes.Unauthenticated, "actor and project required")
	}
	access, err := resolver.ResolveAccess(ctx, actorID, projectID)
	if err != nil {
		return status.Error(codes.Internal, "failed to resolve access")
	}
	if !access.HasAccess {
		return status.Error(codes.PermissionDenied, "not a member of this project")
	}
	if !access.Permissions.Has(key) {
		return status.Errorf(codes.PermissionDenied, "%s required", key)
	}
	return nil
}
