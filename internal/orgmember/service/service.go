// Package service implements the org membership write side: role and status
// changes. Both affect what the member's org resolution returns (role decides
// the owner bypass, status decides access at all), so every mutation returns
// the member's invalidation key and notifies the wired cache.
package service

import (
	"context"
	"errors"
	"log"

	"planhub/backend/internal/audit"
	"planhub/backend/internal/invalidation"
	"planhub/backend/internal/orgmember/domain"
	"planhub/backend/internal/permission"
	"planhub/backend/internal/platform/rbac"
)

// Sentinel errors; callers map them to not-found or bad-request outcomes.
var (
	ErrMembershipNotFound = errors.New("org membership not found")
	ErrInvalidRole        = errors.New("invalid org membership role")
	ErrInvalidStatus      = errors.New("invalid org membership status")
)

// MembershipRepo is the org membership persistence needed by the service.
type MembershipRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Membership, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
}

// Service is the org membership administrative surface.
type Service struct {
	memberships MembershipRepo
	checker     rbac.OrgPermissionChecker
	notifier    invalidation.Notifier
	auditor     audit.AuditLogger
}

// NewService returns an org membership service. notifier may be nil (no
// cache wired); auditor may be nil (mutations are not audited).
func NewService(memberships MembershipRepo, checker rbac.OrgPermissionChecker, notifier invalidation.Notifier, auditor audit.AuditLogger) *Service {
	if notifier == nil {
		notifier = invalidation.Noop
	}
	return &Service{
		memberships: memberships,
		checker:     checker,
		notifier:    notifier,
		auditor:     auditor,
	}
}

// UpdateMemberStatus changes a membership's status. Suspending or removing a
// member revokes their resolved access, so the member's cached org resolution
// is stale the moment this returns.
func (s *Service) UpdateMemberStatus(ctx context.Context, actorID, orgID, membershipID string, status domain.Status) ([]invalidation.Key, error) {
	switch status {
	case domain.StatusActive, domain.StatusInvited, domain.StatusRemoved:
	default:
		return nil, ErrInvalidStatus
	}
	m, err := s.authorizedMembership(ctx, actorID, orgID, membershipID)
	if err != nil {
		return nil, err
	}
	if err := s.memberships.UpdateStatus(ctx, m.ID, status); err != nil {
		return nil, err
	}
	keys := []invalidation.Key{invalidation.OrgKey(m.UserID, orgID)}
	s.notify(ctx, keys)
	s.audit(ctx, orgID, actorID, "member_status_updated", m.ID)
	return keys, nil
}

// UpdateMemberRole changes a membership's role. Promoting to or demoting from
// owner flips the full-universe bypass, so the member's cached org resolution
// is stale the moment this returns.
func (s *Service) UpdateMemberRole(ctx context.Context, actorID, orgID, membershipID string, role domain.Role) ([]invalidation.Key, error) {
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleMember:
	default:
		return nil, ErrInvalidRole
	}
	m, err := s.authorizedMembership(ctx, actorID, orgID, membershipID)
	if err != nil {
		return nil, err
	}
	if err := s.memberships.UpdateRole(ctx, m.ID, role); err != nil {
		return nil, err
	}
	keys := []invalidation.Key{invalidation.OrgKey(m.UserID, orgID)}
	s.notify(ctx, keys)
	s.audit(ctx, orgID, actorID, "member_role_updated", m.ID)
	return keys, nil
}

// authorizedMembership checks the actor's permission and loads the
// membership. A membership belonging to a different org reports not-found,
// never forbidden, so existence does not leak across tenants.
func (s *Service) authorizedMembership(ctx context.Context, actorID, orgID, membershipID string) (*domain.Membership, error) {
	if err := rbac.RequireOrgPermission(ctx, s.checker, actorID, orgID, permission.OrgMembersManage); err != nil {
		return nil, err
	}
	m, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.OrgID != orgID {
		return nil, ErrMembershipNotFound
	}
	return m, nil
}

func (s *Service) notify(ctx context.Context, keys []invalidation.Key) {
	if len(keys) == 0 {
		return
	}
	if err := s.notifier.Invalidate(ctx, keys); err != nil {
		log.Printf("orgmember: invalidation notify failed: %v", err)
	}
}

func (s *Service) audit(ctx context.Context, orgID, actorID, action, membershipID string) {
	if s.auditor == nil {
		return
	}
	s.auditor.LogEvent(ctx, orgID, actorID, action, "org_membership", membershipID)
}
