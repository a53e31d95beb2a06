// Package orgaccess resolves the organization-scoped capability set of one
// user: the union of every permission grant owned by the departments the
// user's membership belongs to, with an owner-role bypass.
package orgaccess

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	departmentdomain "planhub/backend/internal/department/domain"
	orgmemberdomain "planhub/backend/internal/orgmember/domain"
	"planhub/backend/internal/permission"
	"planhub/backend/internal/routes"
)

// MembershipGetter returns a user's org membership. The resolver only needs
// this one read from the membership collection.
type MembershipGetter interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*orgmemberdomain.Membership, error)
}

// DepartmentReader reads the department assignments of a membership and the
// grants owned by a set of departments.
type DepartmentReader interface {
	ListAssignmentsByMembership(ctx context.Context, membershipID string) ([]*departmentdomain.Assignment, error)
	ListGrantsByDepartments(ctx context.Context, departmentIDs []string) ([]*departmentdomain.PermissionGrant, error)
}

// OrgAccess is a user's resolved organization access profile.
type OrgAccess struct {
	HasAccess        bool
	Role             orgmemberdomain.Role
	IsOwner          bool
	Permissions      permission.Set
	AllowedRouteKeys []routes.Key
}

// Resolver computes org access profiles. Stateless and safe for concurrent
// use; every call is a fresh read-then-compute over the store.
type Resolver struct {
	memberships MembershipGetter
	departments DepartmentReader

	tracer   trace.Tracer
	resolved metric.Int64Counter
	degraded metric.Int64Counter
}

// NewResolver returns a Resolver over the given collections.
func NewResolver(memberships MembershipGetter, departments DepartmentReader) *Resolver {
	meter := otel.Meter("planhub/backend/internal/orgaccess")
	resolved, _ := meter.Int64Counter("org_resolutions_total",
		metric.WithDescription("Completed organization permission resolutions."))
	degraded, _ := meter.Int64Counter("org_resolution_degraded_total",
		metric.WithDescription("Org resolutions where a secondary fetch failed and contributed nothing."))
	return &Resolver{
		memberships: memberships,
		departments: departments,
		tracer:      otel.Tracer("planhub/backend/internal/orgaccess"),
		resolved:    resolved,
		degraded:    degraded,
	}
}

// ResolvePermissions returns the user's organization access profile.
//
// No active membership resolves to HasAccess=false with an empty set; that is
// an unauthorized outcome, not an error. Owners bypass department lookups and
// receive the full org permission universe. Failures on the department and
// grant fetches degrade to an empty contribution: the result narrows, the
// call still succeeds.
func (r *Resolver) ResolvePermissions(ctx context.Context, userID, orgID string) (*OrgAccess, error) {
	ctx, span := r.tracer.Start(ctx, "orgaccess.ResolvePermissions",
		trace.WithAttributes(attribute.String("org_id", orgID)))
	defer span.End()

	m, err := r.memberships.GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return &OrgAccess{Permissions: permission.NewSet()}, nil
	}

	access := &OrgAccess{
		HasAccess: true,
		Role:      m.Role,
		IsOwner:   m.Role == orgmemberdomain.RoleOwner,
	}
	if access.IsOwner {
		access.Permissions = permission.OrgUniverse()
	} else {
		access.Permissions = r.unionDepartmentGrants(ctx, m)
	}
	access.AllowedRouteKeys = routes.ProjectOrgRoutes(access.Permissions)

	r.resolved.Add(ctx, 1, metric.WithAttributes(attribute.Bool("owner_bypass", access.IsOwner)))
	return access, nil
}

// HasPermission reports whether the user holds key in the organization.
// Unknown keys are never held, by anyone.
func (r *Resolver) HasPermission(ctx context.Context, userID, orgID string, key permission.Key) (bool, error) {
	if !permission.ValidOrgKey(key) {
		return false, nil
	}
	access, err := r.ResolvePermissions(ctx, userID, orgID)
	if err != nil {
		return false, err
	}
	return access.HasAccess && access.Permissions.Has(key), nil
}

// unionDepartmentGrants merges the permission keys of every department the
// membership belongs to. Both fetches are tolerant: a failure contributes
// nothing and the (narrower) resolution proceeds. A grant referencing a
// department deleted mid-resolution simply adds its key like any other; the
// store filter already scopes grants to the assignment set just read.
func (r *Resolver) unionDepartmentGrants(ctx context.Context, m *orgmemberdomain.Membership) permission.Set {
	perms := permission.NewSet()

	assignments, err := r.departments.ListAssignmentsByMembership(ctx, m.ID)
	if err != nil {
		log.Printf("orgaccess: department assignments fetch failed for membership %s: %v", m.ID, err)
		r.degraded.Add(ctx, 1)
		return perms
	}
	if len(assignments) == 0 {
		return perms
	}

	departmentIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		departmentIDs = append(departmentIDs, a.DepartmentID)
	}

	grants, err := r.departments.ListGrantsByDepartments(ctx, departmentIDs)
	if err != nil {
		log.Printf("orgaccess: department grants fetch failed for membership %s: %v", m.ID, err)
		r.degraded.Add(ctx, 1)
		return perms
	}
	for _, g := range grants {
		perms.Add(g.PermissionKey)
	}
	return perms
}
