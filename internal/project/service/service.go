// Package service implements the project membership write side: role and
// status changes. Both feed the project resolution (role decides defaults and
// the admin bypass, status decides access at all), so every mutation returns
// the member's invalidation key and notifies the wired cache.
package service

import (
	"context"
	"errors"
	"log"

	"planhub/backend/internal/audit"
	"planhub/backend/internal/invalidation"
	"planhub/backend/internal/permission"
	"planhub/backend/internal/platform/rbac"
	"planhub/backend/internal/project/domain"
)

// Sentinel errors; callers map them to not-found or bad-request outcomes.
var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrMembershipNotFound = errors.New("project membership not found")
	ErrInvalidRole        = errors.New("invalid project membership role")
	ErrInvalidStatus      = errors.New("invalid project membership status")
)

// ProjectRepo is the project persistence needed by the service.
type ProjectRepo interface {
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	GetMembershipByUserAndProject(ctx context.Context, userID, projectID string) (*domain.Membership, error)
	UpdateMembershipStatus(ctx context.Context, id string, status domain.Status) error
	UpdateMembershipRole(ctx context.Context, id string, role domain.Role) error
}

// Service is the project membership administrative surface.
type Service struct {
	projects ProjectRepo
	resolver rbac.ProjectAccessResolver
	notifier invalidation.Notifier
	auditor  audit.AuditLogger
}

// NewService returns a project membership service. notifier may be nil (no
// cache wired); auditor may be nil (mutations are not audited).
func NewService(projects ProjectRepo, resolver rbac.ProjectAccessResolver, notifier invalidation.Notifier, auditor audit.AuditLogger) *Service {
	if notifier == nil {
		notifier = invalidation.Noop
	}
	return &Service{
		projects: projects,
		resolver: resolver,
		notifier: notifier,
		auditor:  auditor,
	}
}

// UpdateMembershipStatus changes a member's status in the project. The
// member's cached project resolution is stale the moment this returns.
func (s *Service) UpdateMembershipStatus(ctx context.Context, actorID, projectID, userID string, status domain.Status) ([]invalidation.Key, error) {
	switch status {
	case domain.StatusActive, domain.StatusInvited, domain.StatusRemoved:
	default:
		return nil, ErrInvalidStatus
	}
	m, err := s.authorizedMembership(ctx, actorID, projectID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.projects.UpdateMembershipStatus(ctx, m.ID, status); err != nil {
		return nil, err
	}
	keys := []invalidation.Key{invalidation.ProjectKey(userID, projectID)}
	s.notify(ctx, keys)
	s.audit(ctx, actorID, projectID, "membership_status_updated", m.ID)
	return keys, nil
}

// UpdateMembershipRole changes a member's role in the project. Moving into or
// out of an admin role flips the full-universe bypass; moving between member
// and viewer changes the role defaults. Either way the member's cached
// project resolution is stale the moment this returns.
func (s *Service) UpdateMembershipRole(ctx context.Context, actorID, projectID, userID string, role domain.Role) ([]invalidation.Key, error) {
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleMember, domain.RoleViewer:
	default:
		return nil, ErrInvalidRole
	}
	m, err := s.authorizedMembership(ctx, actorID, projectID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.projects.UpdateMembershipRole(ctx, m.ID, role); err != nil {
		return nil, err
	}
	keys := []invalidation.Key{invalidation.ProjectKey(userID, projectID)}
	s.notify(ctx, keys)
	s.audit(ctx, actorID, projectID, "membership_role_updated", m.ID)
	return keys, nil
}

// authorizedMembership checks the project exists, the actor holds
// MANAGE_MEMBERS in it, and the target membership exists. The
// project-existence check runs first so a cross-tenant lookup reports
// not-found without revealing whether the actor would have been allowed.
func (s *Service) authorizedMembership(ctx context.Context, actorID, projectID, userID string) (*domain.Membership, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	if err := rbac.RequireProjectPermission(ctx, s.resolver, actorID, projectID, permission.ProjectManageMembers); err != nil {
		return nil, err
	}
	m, err := s.projects.GetMembershipByUserAndProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMembershipNotFound
	}
	return m, nil
}

func (s *Service) notify(ctx context.Context, keys []invalidation.Key) {
	if len(keys) == 0 {
		return
	}
	if err := s.notifier.Invalidate(ctx, keys); err != nil {
		log.Printf("project: invalidation notify failed: %v", err)
	}
}

func (s *Service) audit(ctx context.Context, actorID, projectID, action, membershipID string) {
	if s.auditor == nil {
		return
	}
	s.auditor.LogEvent(ctx, projectID, actorID, action, "project_membership", membershipID)
}
