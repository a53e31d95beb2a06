// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev organization already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"planhub/backend/internal/config"
	"planhub/backend/internal/db"
	departmentdomain "planhub/backend/internal/department/domain"
	departmentrepo "planhub/backend/internal/department/repository"
	orgdomain "planhub/backend/internal/organization/domain"
	orgrepo "planhub/backend/internal/organization/repository"
	orgmemberdomain "planhub/backend/internal/orgmember/domain"
	orgmemberrepo "planhub/backend/internal/orgmember/repository"
	"planhub/backend/internal/permission"
	projectdomain "planhub/backend/internal/project/domain"
	projectrepo "planhub/backend/internal/project/repository"
	teamdomain "planhub/backend/internal/team/domain"
	teamrepo "planhub/backend/internal/team/repository"
)

const (
	devOrgID        = "dev-org-001"
	devWorkspaceID  = "dev-workspace-001"
	devProjectID    = "dev-project-001"
	devOwnerID      = "dev-user-001"
	devMemberID     = "dev-user-002"
	devOwnerMemID   = "dev-membership-001"
	devMemberMemID  = "dev-membership-002"
	devDepartmentID = "dev-department-001"
	devTeamID       = "dev-team-001"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	var exists bool
	if err := conn.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)", devOrgID).Scan(&exists); err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if exists {
		log.Println("Seed already applied (dev org exists). Skipping.")
		os.Exit(0)
	}

	orgs := orgrepo.NewPostgresRepository(conn)
	if err := orgs.CreateOrganization(ctx, &orgdomain.Org{
		ID: devOrgID, Name: "Dev Org", Status: orgdomain.OrgStatusActive, CreatedAt: now,
	}); err != nil {
		log.Fatalf("create org: %v", err)
	}
	if _, err := conn.ExecContext(ctx,
		"INSERT INTO workspaces (id, org_id, name, created_at) VALUES ($1, $2, $3, $4)",
		devWorkspaceID, devOrgID, "Dev Workspace", now); err != nil {
		log.Fatalf("create workspace: %v", err)
	}
	if _, err := conn.ExecContext(ctx,
		`INSERT INTO workspace_memberships (id, workspace_id, user_id, role, status, created_at)
		 VALUES ($1, $2, $3, 'admin', 'active', $4)`,
		"dev-ws-membership-001", devWorkspaceID, devOwnerID, now); err != nil {
		log.Fatalf("create workspace membership: %v", err)
	}

	members := orgmemberrepo.NewPostgresRepository(conn)
	if err := members.Create(ctx, &orgmemberdomain.Membership{
		ID: devOwnerMemID, UserID: devOwnerID, OrgID: devOrgID,
		Role: orgmemberdomain.RoleOwner, Status: orgmemberdomain.StatusActive,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create owner membership: %v", err)
	}
	if err := members.Create(ctx, &orgmemberdomain.Membership{
		ID: devMemberMemID, UserID: devMemberID, OrgID: devOrgID,
		Role: orgmemberdomain.RoleMember, Status: orgmemberdomain.StatusActive,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create member membership: %v", err)
	}

	departments := departmentrepo.NewPostgresRepository(conn)
	if err := departments.Create(ctx, &departmentdomain.Department{
		ID: devDepartmentID, OrgID: devOrgID, Name: "Engineering", Color: "#4f46e5",
		CreatedBy: devOwnerID, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create department: %v", err)
	}
	if err := departments.CreateAssignment(ctx, &departmentdomain.Assignment{
		ID: "dev-assignment-001", DepartmentID: devDepartmentID, MembershipID: devMemberMemID, CreatedAt: now,
	}); err != nil {
		log.Fatalf("assign member: %v", err)
	}
	if err := departments.CreateGrant(ctx, &departmentdomain.PermissionGrant{
		ID: "dev-dept-grant-001", DepartmentID: devDepartmentID,
		PermissionKey: permission.OrgWorkspaceCreate, GrantedBy: devOwnerID, GrantedAt: now,
	}); err != nil {
		log.Fatalf("grant department permission: %v", err)
	}

	projects := projectrepo.NewPostgresRepository(conn)
	if err := projects.CreateProject(ctx, &projectdomain.Project{
		ID: devProjectID, WorkspaceID: devWorkspaceID, Name: "Dev Project", CreatedAt: now,
	}); err != nil {
		log.Fatalf("create project: %v", err)
	}
	if err := projects.CreateMembership(ctx, &projectdomain.Membership{
		ID: "dev-pm-001", ProjectID: devProjectID, UserID: devMemberID,
		Role: projectdomain.RoleMember, Status: projectdomain.StatusActive,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create project membership: %v", err)
	}

	teams := teamrepo.NewPostgresRepository(conn)
	if err := teams.CreateTeam(ctx, &teamdomain.Team{
		ID: devTeamID, ProjectID: devProjectID, Name: "Backend", Color: "#16a34a",
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create team: %v", err)
	}
	if err := teams.CreateMembership(ctx, &teamdomain.Membership{
		ID: "dev-tm-001", ProjectID: devProjectID, TeamID: devTeamID,
		UserID: devMemberID, TeamRoleLabel: "lead", CreatedAt: now,
	}); err != nil {
		log.Fatalf("create team membership: %v", err)
	}
	if err := teams.CreateGrant(ctx, &teamdomain.PermissionGrant{
		ID: "dev-grant-001", ProjectID: devProjectID,
		PermissionKey: permission.ProjectTaskCreate, TeamID: devTeamID,
		GrantedBy: devOwnerID, GrantedAt: now,
	}); err != nil {
		log.Fatalf("create project grant: %v", err)
	}

	log.Println("Seed applied.")
}
