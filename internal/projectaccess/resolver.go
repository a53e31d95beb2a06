// Package projectaccess resolves a user's full access profile for one
// project: role, admin flags, the merged permission set (role defaults ∪
// team grants ∪ direct grants), team memberships, and the navigable route
// keys. A workspace administrator is project-admin-equivalent for every
// project in the workspace, whether or not a project membership row exists.
package projectaccess

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"planhub/backend/internal/permission"
	projectdomain "planhub/backend/internal/project/domain"
	"planhub/backend/internal/routes"
	teamdomain "planhub/backend/internal/team/domain"
	workspacedomain "planhub/backend/internal/workspace/domain"
)

// ProjectReader reads the project document and the caller's membership.
type ProjectReader interface {
	GetProject(ctx context.Context, id string) (*projectdomain.Project, error)
	GetMembershipByUserAndProject(ctx context.Context, userID, projectID string) (*projectdomain.Membership, error)
}

// TeamReader reads the caller's team memberships and the project's grants.
type TeamReader interface {
	ListMembershipsByUser(ctx context.Context, projectID, userID string) ([]*teamdomain.Membership, error)
	ListGrantsByProject(ctx context.Context, projectID string) ([]*teamdomain.PermissionGrant, error)
}

// WorkspaceReader reads the higher authority layer the resolver consumes.
type WorkspaceReader interface {
	GetMembershipByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*workspacedomain.Membership, error)
}

// TeamRef is one team membership in the resolved profile.
type TeamRef struct {
	TeamID        string
	TeamRoleLabel string
}

// ProjectAccess is a user's resolved project access profile.
type ProjectAccess struct {
	HasAccess        bool
	Role             projectdomain.Role
	IsOwner          bool
	IsAdmin          bool
	Permissions      permission.Set
	Teams            []TeamRef
	AllowedRouteKeys []routes.Key
}

// roleDefaults are the permission keys implied by a membership role before
// any explicit grant is considered. Owners and admins are handled by the
// full-universe bypass and never consult this table.
var roleDefaults = map[projectdomain.Role][]permission.Key{
	projectdomain.RoleMember: {
		permission.ProjectTaskView,
		permission.ProjectTaskCreate,
		permission.ProjectTaskEdit,
		permission.ProjectSprintView,
	},
	projectdomain.RoleViewer: {
		permission.ProjectTaskView,
		permission.ProjectSprintView,
	},
}

// Resolver computes project access profiles. Stateless and safe for
// concurrent use.
type Resolver struct {
	projects   ProjectReader
	teams      TeamReader
	workspaces WorkspaceReader

	tracer   trace.Tracer
	resolved metric.Int64Counter
	degraded metric.Int64Counter
}

// NewResolver returns a Resolver over the given collections. workspaces may
// be nil; then ResolveAccess never applies the workspace-admin override and
// callers must pass their own authority hint via ResolveAccessWithAuthority.
func NewResolver(projects ProjectReader, teams TeamReader, workspaces WorkspaceReader) *Resolver {
	meter := otel.Meter("planhub/backend/internal/projectaccess")
	resolved, _ := meter.Int64Counter("project_resolutions_total",
		metric.WithDescription("Completed project access resolutions."))
	degraded, _ := meter.Int64Counter("project_resolution_degraded_total",
		metric.WithDescription("Project resolutions where a secondary fetch failed and contributed nothing."))
	return &Resolver{
		projects:   projects,
		teams:      teams,
		workspaces: workspaces,
		tracer:     otel.Tracer("planhub/backend/internal/projectaccess"),
		resolved:   resolved,
		degraded:   degraded,
	}
}

// ResolveAccess resolves the user's access to the project, deriving the
// workspace authority hint from the project's workspace. A missing project
// resolves to no access, not an error.
func (r *Resolver) ResolveAccess(ctx context.Context, userID, projectID string) (*ProjectAccess, error) {
	ctx, span := r.tracer.Start(ctx, "projectaccess.ResolveAccess",
		trace.WithAttributes(attribute.String("project_id", projectID)))
	defer span.End()

	p, err := r.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return noAccess(), nil
	}
	return r.ResolveAccessWithAuthority(ctx, userID, projectID, r.workspaceAuthority(ctx, userID, p.WorkspaceID))
}

// ResolveAccessWithAuthority resolves the user's access with an explicit
// workspace authority hint. The hint is the one cross-layer input: a
// workspace admin is treated as a project admin even without a membership
// row.
func (r *Resolver) ResolveAccessWithAuthority(ctx context.Context, userID, projectID string, authority workspacedomain.Authority) (*ProjectAccess, error) {
	ctx, span := r.tracer.Start(ctx, "projectaccess.ResolveAccessWithAuthority",
		trace.WithAttributes(attribute.String("project_id", projectID)))
	defer span.End()

	m, err := r.projects.GetMembershipByUserAndProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() && !authority.IsWorkspaceAdmin {
		return noAccess(), nil
	}

	access := &ProjectAccess{HasAccess: true}
	if m.IsActive() {
		access.Role = m.Role
		access.IsOwner = m.Role == projectdomain.RoleOwner
	}
	access.IsAdmin = access.IsOwner || access.Role == projectdomain.RoleAdmin || authority.IsWorkspaceAdmin

	// Team memberships and grants do not depend on each other; fetch both
	// concurrently. Teams are part of the profile even for admins; grants
	// are only needed on the non-bypass branch.
	memberships, grants := r.fetchTeamState(ctx, userID, projectID, !access.IsAdmin)

	teamIDs := make(map[string]struct{}, len(memberships))
	for _, tm := range memberships {
		teamIDs[tm.TeamID] = struct{}{}
		access.Teams = append(access.Teams, TeamRef{TeamID: tm.TeamID, TeamRoleLabel: tm.TeamRoleLabel})
	}

	if access.IsAdmin {
		access.Permissions = permission.ProjectUniverse()
	} else {
		access.Permissions = permission.NewSet(roleDefaults[access.Role]...)
		for _, g := range grants {
			if g.UserID == userID {
				access.Permissions.Add(g.PermissionKey)
				continue
			}
			if g.TeamID != "" {
				if _, ok := teamIDs[g.TeamID]; ok {
					access.Permissions.Add(g.PermissionKey)
				}
			}
		}
	}
	access.AllowedRouteKeys = routes.ProjectProjectRoutes(access.Permissions)

	r.resolved.Add(ctx, 1, metric.WithAttributes(attribute.Bool("admin_bypass", access.IsAdmin)))
	return access, nil
}

// workspaceAuthority computes the cross-layer hint. A failed workspace lookup
// degrades to no authority: ambiguity narrows permissions, never widens them.
func (r *Resolver) workspaceAuthority(ctx context.Context, userID, workspaceID string) workspacedomain.Authority {
	if r.workspaces == nil || workspaceID == "" {
		return workspacedomain.Authority{}
	}
	wm, err := r.workspaces.GetMembershipByUserAndWorkspace(ctx, userID, workspaceID)
	if err != nil {
		log.Printf("projectaccess: workspace membership fetch failed for workspace %s: %v", workspaceID, err)
		r.degraded.Add(ctx, 1)
		return workspacedomain.Authority{}
	}
	if wm == nil || wm.Status != workspacedomain.StatusActive {
		return workspacedomain.Authority{}
	}
	return workspacedomain.Authority{IsWorkspaceAdmin: wm.Role == workspacedomain.RoleAdmin}
}

// fetchTeamState loads the user's team memberships and, when needed, the
// project's grant rows. The fetches are independent and run concurrently;
// each one is tolerant, degrading to an empty contribution on failure. The
// merge below is a set union, so interleaving never changes the outcome.
func (r *Resolver) fetchTeamState(ctx context.Context, userID, projectID string, needGrants bool) ([]*teamdomain.Membership, []*teamdomain.PermissionGrant) {
	var (
		wg          sync.WaitGroup
		memberships []*teamdomain.Membership
		grants      []*teamdomain.PermissionGrant
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		tm, err := r.teams.ListMembershipsByUser(ctx, projectID, userID)
		if err != nil {
			log.Printf("projectaccess: team memberships fetch failed for project %s: %v", projectID, err)
			r.degraded.Add(ctx, 1)
			return
		}
		memberships = tm
	}()

	if needGrants {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := r.teams.ListGrantsByProject(ctx, projectID)
			if err != nil {
				log.Printf("projectaccess: grants fetch failed for project %s: %v", projectID, err)
				r.degraded.Add(ctx, 1)
				return
			}
			grants = g
		}()
	}

	wg.Wait()
	return memberships, grants
}

func noAccess() *ProjectAccess {
	return &ProjectAccess{Permissions: permission.NewSet()}
}
