package projectaccess

import (
	"context"
	"errors"
	"testing"

	"planhub/backend/internal/permission"
	projectdomain "planhub/backend/internal/project/domain"
	"planhub/backend/internal/routes"
	teamdomain "planhub/backend/internal/team/domain"
	workspacedomain "planhub/backend/internal/workspace/domain"
)

// mockProjects implements ProjectReader for tests.
type mockProjects struct {
	projects    map[string]*projectdomain.Project
	memberships map[string]*projectdomain.Membership
	err         error
}

func (m *mockProjects) GetProject(ctx context.Context, id string) (*projectdomain.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.projects[id], nil
}

func (m *mockProjects) GetMembershipByUserAndProject(ctx context.Context, userID, projectID string) (*projectdomain.Membership, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.memberships[userID+":"+projectID], nil
}

// mockTeams implements TeamReader for tests.
type mockTeams struct {
	memberships    map[string][]*teamdomain.Membership
	grants         []*teamdomain.PermissionGrant
	membershipsErr error
	grantsErr      error

	grantsCalled bool
}

func (m *mockTeams) ListMembershipsByUser(ctx context.Context, projectID, userID string) ([]*teamdomain.Membership, error) {
	if m.membershipsErr != nil {
		return nil, m.membershipsErr
	}
	return m.memberships[userID+":"+projectID], nil
}

func (m *mockTeams) ListGrantsByProject(ctx context.Context, projectID string) ([]*teamdomain.PermissionGrant, error) {
	m.grantsCalled = true
	if m.grantsErr != nil {
		return nil, m.grantsErr
	}
	return m.grants, nil
}

// mockWorkspaces implements WorkspaceReader for tests.
type mockWorkspaces struct {
	memberships map[string]*workspacedomain.Membership
	err         error
}

func (m *mockWorkspaces) GetMembershipByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*workspacedomain.Membership, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.memberships[userID+":"+workspaceID], nil
}

func projectFixture() *mockProjects {
	return &mockProjects{
		projects: map[string]*projectdomain.Project{
			"proj-1": {ID: "proj-1", WorkspaceID: "ws-1", Name: "Apollo"},
		},
		memberships: map[string]*projectdomain.Membership{},
	}
}

func (m *mockProjects) withMembership(userID string, role projectdomain.Role) *mockProjects {
	m.memberships[userID+":proj-1"] = &projectdomain.Membership{
		ID: "pm-" + userID, ProjectID: "proj-1", UserID: userID,
		Role: role, Status: projectdomain.StatusActive,
	}
	return m
}

func TestResolveAccess_ProjectMissing(t *testing.T) {
	r := NewResolver(&mockProjects{}, &mockTeams{}, nil)

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-9")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if access.HasAccess {
		t.Error("HasAccess = true for missing project, want false")
	}
}

func TestResolveAccess_NoMembership(t *testing.T) {
	r := NewResolver(projectFixture(), &mockTeams{}, &mockWorkspaces{})

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if access.HasAccess {
		t.Error("HasAccess = true without membership or workspace authority, want false")
	}
	if len(access.Permissions) != 0 {
		t.Errorf("permissions = %v, want empty", access.Permissions.Strings())
	}
}

func TestResolveAccess_MemberRoleDefaults(t *testing.T) {
	r := NewResolver(projectFixture().withMembership("user-1", projectdomain.RoleMember), &mockTeams{}, &mockWorkspaces{})

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if !access.HasAccess || access.IsAdmin {
		t.Fatalf("access = %+v, want plain member", access)
	}
	for _, k := range []permission.Key{permission.ProjectTaskView, permission.ProjectTaskCreate, permission.ProjectTaskEdit, permission.ProjectSprintView} {
		if !access.Permissions.Has(k) {
			t.Errorf("member defaults missing %s", k)
		}
	}
	if access.Permissions.Has(permission.ProjectTaskDelete) {
		t.Error("member defaults include task.delete")
	}
}

func TestResolveAccess_ViewerRoleDefaults(t *testing.T) {
	r := NewResolver(projectFixture().withMembership("user-1", projectdomain.RoleViewer), &mockTeams{}, &mockWorkspaces{})

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	want := permission.NewSet(permission.ProjectTaskView, permission.ProjectSprintView)
	if len(access.Permissions) != len(want) {
		t.Fatalf("viewer permissions = %v, want %v", access.Permissions.Strings(), want.Strings())
	}
}

func TestResolveAccess_TeamAndDirectGrantsUnion(t *testing.T) {
	teams := &mockTeams{
		memberships: map[string][]*teamdomain.Membership{
			"user-1:proj-1": {{ID: "tm1", ProjectID: "proj-1", TeamID: "team-a", UserID: "user-1", TeamRoleLabel: "lead"}},
		},
		grants: []*teamdomain.PermissionGrant{
			{ID: "g1", ProjectID: "proj-1", PermissionKey: permission.ProjectTaskDelete, TeamID: "team-a"},
			{ID: "g2", ProjectID: "proj-1", PermissionKey: permission.ProjectSprintCreate, TeamID: "team-b"},
			{ID: "g3", ProjectID: "proj-1", PermissionKey: permission.ProjectMemberInvite, UserID: "user-1"},
			{ID: "g4", ProjectID: "proj-1", PermissionKey: permission.ProjectSettings, UserID: "user-2"},
		},
	}
	r := NewResolver(projectFixture().withMembership("user-1", projectdomain.RoleViewer), teams, &mockWorkspaces{})

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if !access.Permissions.Has(permission.ProjectTaskDelete) {
		t.Error("permissions missing the grant of the user's own team")
	}
	if access.Permissions.Has(permission.ProjectSprintCreate) {
		t.Error("permissions include a grant of a team the user is not in")
	}
	if !access.Permissions.Has(permission.ProjectMemberInvite) {
		t.Error("permissions missing the user's direct grant")
	}
	if access.Permissions.Has(permission.ProjectSettings) {
		t.Error("permissions include another user's direct grant")
	}
	if !access.Permissions.Has(permission.ProjectTaskView) {
		t.Error("grants replaced role defaults instead of union")
	}
	if len(access.Teams) != 1 || access.Teams[0].TeamID != "team-a" || access.Teams[0].TeamRoleLabel != "lead" {
		t.Errorf("teams = %+v, want the user's one team", access.Teams)
	}
}

func TestResolveAccess_AdminBypassSkipsGrants(t *testing.T) {
	teams := &mockTeams{}
	r := NewResolver(projectFixture().withMembership("user-1", projectdomain.RoleAdmin), teams, &mockWorkspaces{})

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if !access.IsAdmin {
		t.Fatal("IsAdmin = false for project_admin")
	}
	if len(access.Permissions) != len(permission.ProjectUniverse()) {
		t.Errorf("admin permissions = %v, want full universe", access.Permissions.Strings())
	}
	if teams.grantsCalled {
		t.Error("admin resolution fetched grant rows")
	}
}

func TestResolveAccess_OwnerKeepsUniverseAfterGrantRemoval(t *testing.T) {
	// The grant table being empty must not narrow an owner.
	r := NewResolver(projectFixture().withMembership("user-1", projectdomain.RoleOwner), &mockTeams{}, &mockWorkspaces{})

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if !access.IsOwner || !access.IsAdmin {
		t.Fatalf("access = %+v, want owner flags", access)
	}
	if !access.Permissions.Has(permission.ProjectManagePermissions) {
		t.Error("owner missing MANAGE_PERMISSIONS with an empty grant table")
	}
}

func TestResolveAccess_WorkspaceAdminWithoutMembership(t *testing.T) {
	workspaces := &mockWorkspaces{memberships: map[string]*workspacedomain.Membership{
		"user-1:ws-1": {ID: "wm1", WorkspaceID: "ws-1", UserID: "user-1", Role: workspacedomain.RoleAdmin, Status: workspacedomain.StatusActive},
	}}
	r := NewResolver(projectFixture(), &mockTeams{}, workspaces)

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if !access.HasAccess || !access.IsAdmin {
		t.Fatalf("access = %+v, want admin-equivalent workspace admin", access)
	}
	if access.IsOwner || access.Role != "" {
		t.Errorf("access = %+v, want no project role without a membership row", access)
	}
	if len(access.Permissions) != len(permission.ProjectUniverse()) {
		t.Errorf("workspace admin permissions = %v, want full universe", access.Permissions.Strings())
	}
}

func TestResolveAccess_WorkspaceMemberGetsNoOverride(t *testing.T) {
	workspaces := &mockWorkspaces{memberships: map[string]*workspacedomain.Membership{
		"user-1:ws-1": {ID: "wm1", WorkspaceID: "ws-1", UserID: "user-1", Role: workspacedomain.RoleMember, Status: workspacedomain.StatusActive},
	}}
	r := NewResolver(projectFixture(), &mockTeams{}, workspaces)

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if access.HasAccess {
		t.Error("HasAccess = true for workspace member without project membership, want false")
	}
}

func TestResolveAccess_WorkspaceLookupFailureDegradesToNoAuthority(t *testing.T) {
	r := NewResolver(projectFixture(), &mockTeams{}, &mockWorkspaces{err: errors.New("store down")})

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if access.HasAccess {
		t.Error("HasAccess = true when workspace authority could not be read, want false")
	}
}

func TestResolveAccessWithAuthority_ExplicitHint(t *testing.T) {
	r := NewResolver(projectFixture(), &mockTeams{}, nil)

	access, err := r.ResolveAccessWithAuthority(context.Background(), "user-1", "proj-1",
		workspacedomain.Authority{IsWorkspaceAdmin: true})
	if err != nil {
		t.Fatalf("ResolveAccessWithAuthority: %v", err)
	}
	if !access.IsAdmin {
		t.Error("IsAdmin = false with explicit workspace-admin hint")
	}
}

func TestResolveAccess_TeamsPopulatedForAdmins(t *testing.T) {
	teams := &mockTeams{
		memberships: map[string][]*teamdomain.Membership{
			"user-1:proj-1": {{ID: "tm1", ProjectID: "proj-1", TeamID: "team-a", UserID: "user-1"}},
		},
	}
	r := NewResolver(projectFixture().withMembership("user-1", projectdomain.RoleAdmin), teams, &mockWorkspaces{})

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if len(access.Teams) != 1 {
		t.Errorf("teams = %+v, want the admin's team memberships in the profile", access.Teams)
	}
}

func TestResolveAccess_DegradedTeamFetches(t *testing.T) {
	teams := &mockTeams{membershipsErr: errors.New("store down"), grantsErr: errors.New("store down")}
	r := NewResolver(projectFixture().withMembership("user-1", projectdomain.RoleMember), teams, &mockWorkspaces{})

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	if !access.HasAccess {
		t.Error("HasAccess = false on degraded team fetches, want true")
	}
	// Role defaults survive; team and direct contributions degrade to nothing.
	if !access.Permissions.Has(permission.ProjectTaskView) {
		t.Error("role defaults lost on degraded team fetches")
	}
	if len(access.Teams) != 0 {
		t.Errorf("teams = %+v, want empty on degraded membership fetch", access.Teams)
	}
}

func TestResolveAccess_RouteKeysFollowPermissions(t *testing.T) {
	r := NewResolver(projectFixture().withMembership("user-1", projectdomain.RoleViewer), &mockTeams{}, &mockWorkspaces{})

	access, err := r.ResolveAccess(context.Background(), "user-1", "proj-1")
	if err != nil {
		t.Fatalf("ResolveAccess: %v", err)
	}
	got := make(map[routes.Key]struct{}, len(access.AllowedRouteKeys))
	for _, k := range access.AllowedRouteKeys {
		got[k] = struct{}{}
	}
	if _, ok := got[routes.ProjectTasks]; !ok {
		t.Error("route keys missing project.tasks for a task.view holder")
	}
	if _, ok := got[routes.ProjectPermissions]; ok {
		t.Error("route keys include project.permissions without MANAGE_PERMISSIONS")
	}
}
