// Package service implements the project team write side: create, update,
// and delete teams, manage team membership, and grant or revoke project
// permission keys for teams or individual users. Team and membership
// mutations require MANAGE_TEAMS; grant mutations require
// MANAGE_PERMISSIONS. Every mutation returns the set of identities whose
// cached resolution it made stale.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"planhub/backend/internal/audit"
	"planhub/backend/internal/invalidation"
	"planhub/backend/internal/permission"
	"planhub/backend/internal/platform/rbac"
	projectdomain "planhub/backend/internal/project/domain"
	"planhub/backend/internal/team/domain"
)

// Sentinel errors; callers map them to conflict or not-found outcomes.
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrTeamNotFound     = errors.New("team not found")
	ErrGrantNotFound    = errors.New("grant not found")
	ErrNameTaken        = errors.New("team name already in use")
	ErrAlreadyMember    = errors.New("user is already a member of the team")
	ErrNotMember        = errors.New("user is not a member of the team")
	ErrNotProjectMember = errors.New("user is not an active member of the project")
	ErrAlreadyGranted   = errors.New("permission already granted to this target")
)

// TeamRepo is the team persistence needed by the service.
type TeamRepo interface {
	GetTeam(ctx context.Context, id string) (*domain.Team, error)
	GetTeamByProjectAndName(ctx context.Context, projectID, name string) (*domain.Team, error)
	CreateTeam(ctx context.Context, t *domain.Team) error
	UpdateTeam(ctx context.Context, t *domain.Team) error
	DeleteTeam(ctx context.Context, id string) error
	ListMembershipsByTeam(ctx context.Context, teamID string) ([]*domain.Membership, error)
	GetMembership(ctx context.Context, teamID, userID string) (*domain.Membership, error)
	CreateMembership(ctx context.Context, m *domain.Membership) error
	DeleteMembership(ctx context.Context, teamID, userID string) error
	ListGrantsByProject(ctx context.Context, projectID string) ([]*domain.PermissionGrant, error)
	CreateGrant(ctx context.Context, g *domain.PermissionGrant) error
	DeleteGrant(ctx context.Context, id string) error
	DeleteGrantsByTeam(ctx context.Context, teamID string) error
}

// ProjectRepo is the project persistence needed by the service.
type ProjectRepo interface {
	GetProject(ctx context.Context, id string) (*projectdomain.Project, error)
	GetMembershipByUserAndProject(ctx context.Context, userID, projectID string) (*projectdomain.Membership, error)
}

// Service is the team administrative surface.
type Service struct {
	teams    TeamRepo
	projects ProjectRepo
	resolver rbac.ProjectAccessResolver
	notifier invalidation.Notifier
	auditor  audit.AuditLogger
}

// NewService returns a team service. notifier may be nil (no cache wired);
// auditor may be nil (mutations are not audited).
func NewService(teams TeamRepo, projects ProjectRepo, resolver rbac.ProjectAccessResolver, notifier invalidation.Notifier, auditor audit.AuditLogger) *Service {
	if notifier == nil {
		notifier = invalidation.Noop
	}
	return &Service{
		teams:    teams,
		projects: projects,
		resolver: resolver,
		notifier: notifier,
		auditor:  auditor,
	}
}

// CreateTeam creates a team in the project. A name collision within the
// project is a conflict.
func (s *Service) CreateTeam(ctx context.Context, actorID, projectID, name, color string) (*domain.Team, []invalidation.Key, error) {
	if err := s.authorize(ctx, actorID, projectID, permission.ProjectManageTeams); err != nil {
		return nil, nil, err
	}
	existing, err := s.teams.GetTeamByProjectAndName(ctx, projectID, name)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrNameTaken
	}
	now := time.Now().UTC()
	t := &domain.Team{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.teams.CreateTeam(ctx, t); err != nil {
		return nil, nil, err
	}
	s.audit(ctx, actorID, projectID, "team_created", t.ID)
	return t, nil, nil
}

// UpdateTeam renames or recolors a team. Renaming into an existing name is a
// conflict.
func (s *Service) UpdateTeam(ctx context.Context, actorID, projectID, teamID, name, color string) (*domain.Team, []invalidation.Key, error) {
	t, err := s.authorizedTeam(ctx, actorID, projectID, teamID, permission.ProjectManageTeams)
	if err != nil {
		return nil, nil, err
	}
	if name != t.Name {
		existing, err := s.teams.GetTeamByProjectAndName(ctx, projectID, name)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil && existing.ID != t.ID {
			return nil, nil, ErrNameTaken
		}
	}
	t.Name = name
	t.Color = color
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.teams.UpdateTeam(ctx, t); err != nil {
		return nil, nil, err
	}
	s.audit(ctx, actorID, projectID, "team_updated", t.ID)
	return t, nil, nil
}

// DeleteTeam deletes a team together with its memberships and grants. Every
// current member loses the team's grants, so the fan-out covers all of them.
func (s *Service) DeleteTeam(ctx context.Context, actorID, projectID, teamID string) ([]invalidation.Key, error) {
	t, err := s.authorizedTeam(ctx, actorID, projectID, teamID, permission.ProjectManageTeams)
	if err != nil {
		return nil, err
	}
	keys, err := s.teamFanout(ctx, t)
	if err != nil {
		return nil, err
	}
	if err := s.teams.DeleteTeam(ctx, t.ID); err != nil {
		return nil, err
	}
	s.notify(ctx, keys)
	s.audit(ctx, actorID, projectID, "team_deleted", t.ID)
	return keys, nil
}

// AddMember adds a user to the team. The user must be an active member of the
// project; adding an existing team member is a conflict.
func (s *Service) AddMember(ctx context.Context, actorID, projectID, teamID, userID, teamRoleLabel string) (*domain.Membership, []invalidation.Key, error) {
	t, err := s.authorizedTeam(ctx, actorID, projectID, teamID, permission.ProjectManageTeams)
	if err != nil {
		return nil, nil, err
	}
	pm, err := s.projects.GetMembershipByUserAndProject(ctx, userID, projectID)
	if err != nil {
		return nil, nil, err
	}
	if !pm.IsActive() {
		return nil, nil, ErrNotProjectMember
	}
	existing, err := s.teams.GetMembership(ctx, t.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrAlreadyMember
	}
	m := &domain.Membership{
		ID:            uuid.New().String(),
		ProjectID:     projectID,
		TeamID:        t.ID,
		UserID:        userID,
		TeamRoleLabel: teamRoleLabel,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.teams.CreateMembership(ctx, m); err != nil {
		return nil, nil, err
	}
	keys := []invalidation.Key{invalidation.ProjectKey(userID, projectID)}
	s.notify(ctx, keys)
	s.audit(ctx, actorID, projectID, "team_member_added", t.ID)
	return m, keys, nil
}

// RemoveMember removes a user from the team.
func (s *Service) RemoveMember(ctx context.Context, actorID, projectID, teamID, userID string) ([]invalidation.Key, error) {
	t, err := s.authorizedTeam(ctx, actorID, projectID, teamID, permission.ProjectManageTeams)
	if err != nil {
		return nil, err
	}
	existing, err := s.teams.GetMembership(ctx, t.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotMember
	}
	if err := s.teams.DeleteMembership(ctx, t.ID, userID); err != nil {
		return nil, err
	}
	keys := []invalidation.Key{invalidation.ProjectKey(userID, projectID)}
	s.notify(ctx, keys)
	s.audit(ctx, actorID, projectID, "team_member_removed", t.ID)
	return keys, nil
}

// GrantPermission assigns a project permission key to a team or directly to a
// user (exactly one target). Granting an existing (target, key) pair is a
// conflict.
func (s *Service) GrantPermission(ctx context.Context, actorID, projectID string, key permission.Key, teamID, userID string) (*domain.PermissionGrant, []invalidation.Key, error) {
	if err := s.authorize(ctx, actorID, projectID, permission.ProjectManagePermissions); err != nil {
		return nil, nil, err
	}
	g := &domain.PermissionGrant{
		ID:            uuid.New().String(),
		ProjectID:     projectID,
		PermissionKey: key,
		TeamID:        teamID,
		UserID:        userID,
		GrantedBy:     actorID,
		GrantedAt:     time.Now().UTC(),
	}
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}
	if teamID != "" {
		t, err := s.teams.GetTeam(ctx, teamID)
		if err != nil {
			return nil, nil, err
		}
		if t == nil || t.ProjectID != projectID {
			return nil, nil, ErrTeamNotFound
		}
	}
	existing, err := s.teams.ListGrantsByProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range existing {
		if e.PermissionKey == key && e.TeamID == teamID && e.UserID == userID {
			return nil, nil, ErrAlreadyGranted
		}
	}
	if err := s.teams.CreateGrant(ctx, g); err != nil {
		return nil, nil, err
	}
	keys, err := s.grantFanout(ctx, projectID, teamID, userID)
	if err != nil {
		return nil, nil, err
	}
	s.notify(ctx, keys)
	s.audit(ctx, actorID, projectID, "permission_granted", g.ID)
	return g, keys, nil
}

// RevokePermission removes one grant row. The fan-out covers the grant's
// target: every member of the team, or the directly granted user.
func (s *Service) RevokePermission(ctx context.Context, actorID, projectID, grantID string) ([]invalidation.Key, error) {
	if err := s.authorize(ctx, actorID, projectID, permission.ProjectManagePermissions); err != nil {
		return nil, err
	}
	grants, err := s.teams.ListGrantsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var target *domain.PermissionGrant
	for _, g := range grants {
		if g.ID == grantID {
			target = g
			break
		}
	}
	if target == nil {
		return nil, ErrGrantNotFound
	}
	if err := s.teams.DeleteGrant(ctx, grantID); err != nil {
		return nil, err
	}
	keys, err := s.grantFanout(ctx, projectID, target.TeamID, target.UserID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, keys)
	s.audit(ctx, actorID, projectID, "permission_revoked", grantID)
	return keys, nil
}

// ReplaceTeamPermissions replaces the team's grant set with exactly the given
// keys. Existing keys not listed are revoked, listed keys not present are
// granted. The fan-out covers every team member once, whatever the diff.
func (s *Service) ReplaceTeamPermissions(ctx context.Context, actorID, projectID, teamID string, keys []permission.Key) ([]invalidation.Key, error) {
	if err := s.authorize(ctx, actorID, projectID, permission.ProjectManagePermissions); err != nil {
		return nil, err
	}
	t, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.ProjectID != projectID {
		return nil, ErrTeamNotFound
	}
	for _, k := range keys {
		g := &domain.PermissionGrant{ProjectID: projectID, PermissionKey: k, TeamID: teamID}
		if err := g.Validate(); err != nil {
			return nil, err
		}
	}
	if err := s.teams.DeleteGrantsByTeam(ctx, teamID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, k := range keys {
		g := &domain.PermissionGrant{
			ID:            uuid.New().String(),
			ProjectID:     projectID,
			PermissionKey: k,
			TeamID:        teamID,
			GrantedBy:     actorID,
			GrantedAt:     now,
		}
		if err := s.teams.CreateGrant(ctx, g); err != nil {
			return nil, err
		}
	}
	staleKeys, err := s.teamFanout(ctx, t)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, staleKeys)
	s.audit(ctx, actorID, projectID, "team_permissions_replaced", teamID)
	return staleKeys, nil
}

// authorize checks the project exists and the actor holds key in it. The
// project-existence check runs first so a cross-tenant lookup reports
// not-found without revealing whether the actor would have been allowed.
func (s *Service) authorize(ctx context.Context, actorID, projectID string, key permission.Key) error {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrProjectNotFound
	}
	return rbac.RequireProjectPermission(ctx, s.resolver, actorID, projectID, key)
}

func (s *Service) authorizedTeam(ctx context.Context, actorID, projectID, teamID string, key permission.Key) (*domain.Team, error) {
	if err := s.authorize(ctx, actorID, projectID, key); err != nil {
		return nil, err
	}
	t, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.ProjectID != projectID {
		return nil, ErrTeamNotFound
	}
	return t, nil
}

// teamFanout enumerates one project-scope key per team member.
func (s *Service) teamFanout(ctx context.Context, t *domain.Team) ([]invalidation.Key, error) {
	members, err := s.teams.ListMembershipsByTeam(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	keys := make([]invalidation.Key, 0, len(members))
	for _, m := range members {
		keys = append(keys, invalidation.ProjectKey(m.UserID, t.ProjectID))
	}
	return invalidation.Dedupe(keys), nil
}

// grantFanout enumerates the identities affected by a grant mutation: the
// team's members for a team grant, the single user for a direct grant.
func (s *Service) grantFanout(ctx context.Context, projectID, teamID, userID string) ([]invalidation.Key, error) {
	if userID != "" {
		return []invalidation.Key{invalidation.ProjectKey(userID, projectID)}, nil
	}
	members, err := s.teams.ListMembershipsByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	keys := make([]invalidation.Key, 0, len(members))
	for _, m := range members {
		keys = append(keys, invalidation.ProjectKey(m.UserID, projectID))
	}
	return invalidation.Dedupe(keys), nil
}

func (s *Service) notify(ctx context.Context, keys []invalidation.Key) {
	if len(keys) == 0 {
		return
	}
	if err := s.notifier.Invalidate(ctx, keys); err != nil {
		log.Printf("team: invalidation notify failed: %v", err)
	}
}

func (s *Service) audit(ctx context.Context, actorID, projectID, action, resourceID string) {
	if s.auditor == nil {
		return
	}
	s.auditor.LogEvent(ctx, projectID, actorID, action, "team", resourceID)
}
