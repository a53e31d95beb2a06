// Package service implements the department write side: create, update, and
// delete departments, assign members, and grant or revoke permission keys.
// Every mutation checks the actor's DEPARTMENTS_MANAGE permission, rejects
// duplicates with a conflict error, and returns the set of identities whose
// cached resolution the mutation made stale.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"planhub/backend/internal/audit"
	"planhub/backend/internal/department/domain"
	"planhub/backend/internal/invalidation"
	orgmemberdomain "planhub/backend/internal/orgmember/domain"
	"planhub/backend/internal/permission"
	"planhub/backend/internal/platform/rbac"
)

// Sentinel errors; callers map them to conflict or not-found outcomes.
var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrMembershipNotFound = errors.New("org membership not found")
	ErrNameTaken          = errors.New("department name already in use")
	ErrAlreadyAssigned    = errors.New("member already assigned to department")
	ErrNotAssigned        = errors.New("member is not assigned to department")
	ErrAlreadyGranted     = errors.New("permission already granted to department")
	ErrGrantNotFound      = errors.New("permission is not granted to department")
	ErrUnknownKey         = errors.New("unknown organization permission key")
)

// DepartmentRepo is the department persistence needed by the service.
type DepartmentRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	GetByOrgAndName(ctx context.Context, orgID, name string) (*domain.Department, error)
	Create(ctx context.Context, d *domain.Department) error
	Update(ctx context.Context, d *domain.Department) error
	Delete(ctx context.Context, id string) error
	ListAssignmentsByDepartment(ctx context.Context, departmentID string) ([]*domain.Assignment, error)
	GetAssignment(ctx context.Context, departmentID, membershipID string) (*domain.Assignment, error)
	CreateAssignment(ctx context.Context, a *domain.Assignment) error
	DeleteAssignment(ctx context.Context, departmentID, membershipID string) error
	GetGrant(ctx context.Context, departmentID, permissionKey string) (*domain.PermissionGrant, error)
	CreateGrant(ctx context.Context, g *domain.PermissionGrant) error
	DeleteGrant(ctx context.Context, departmentID, permissionKey string) error
}

// MembershipRepo is the org membership persistence needed by the service.
type MembershipRepo interface {
	GetByID(ctx context.Context, id string) (*orgmemberdomain.Membership, error)
	ListByIDs(ctx context.Context, ids []string) ([]*orgmemberdomain.Membership, error)
}

// Service is the department administrative surface.
type Service struct {
	departments DepartmentRepo
	memberships MembershipRepo
	checker     rbac.OrgPermissionChecker
	notifier    invalidation.Notifier
	auditor     audit.AuditLogger
}

// NewService returns a department service. notifier may be nil (no cache
// wired); auditor may be nil (mutations are not audited).
func NewService(departments DepartmentRepo, memberships MembershipRepo, checker rbac.OrgPermissionChecker, notifier invalidation.Notifier, auditor audit.AuditLogger) *Service {
	if notifier == nil {
		notifier = invalidation.Noop
	}
	return &Service{
		departments: departments,
		memberships: memberships,
		checker:     checker,
		notifier:    notifier,
		auditor:     auditor,
	}
}

// CreateDepartment creates a department in the org. A name collision within
// the org is a conflict. A new department has no members, so no cached
// resolution becomes stale.
func (s *Service) CreateDepartment(ctx context.Context, actorID, orgID, name, color string) (*domain.Department, []invalidation.Key, error) {
	if err := rbac.RequireOrgPermission(ctx, s.checker, actorID, orgID, permission.OrgDepartmentsManage); err != nil {
		return nil, nil, err
	}
	existing, err := s.departments.GetByOrgAndName(ctx, orgID, name)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrNameTaken
	}
	now := time.Now().UTC()
	d := &domain.Department{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Name:      name,
		Color:     color,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, nil, err
	}
	s.audit(ctx, orgID, actorID, "department_created", d.ID)
	return d, nil, nil
}

// UpdateDepartment renames or recolors a department. Renaming into an
// existing name is a conflict. Names and colors do not affect resolution, so
// no cached resolution becomes stale.
func (s *Service) UpdateDepartment(ctx context.Context, actorID, orgID, departmentID, name, color string) (*domain.Department, []invalidation.Key, error) {
	d, err := s.authorizedDepartment(ctx, actorID, orgID, departmentID)
	if err != nil {
		return nil, nil, err
	}
	if name != d.Name {
		existing, err := s.departments.GetByOrgAndName(ctx, orgID, name)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil && existing.ID != d.ID {
			return nil, nil, ErrNameTaken
		}
	}
	d.Name = name
	d.Color = color
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.departments.Update(ctx, d); err != nil {
		return nil, nil, err
	}
	s.audit(ctx, orgID, actorID, "department_updated", d.ID)
	return d, nil, nil
}

// DeleteDepartment deletes a department together with its member assignments
// and permission grants. Every current member loses the department's grants,
// so the fan-out covers all of them; it is enumerated before the delete so
// the assignment rows are still readable.
func (s *Service) DeleteDepartment(ctx context.Context, actorID, orgID, departmentID string) ([]invalidation.Key, error) {
	d, err := s.authorizedDepartment(ctx, actorID, orgID, departmentID)
	if err != nil {
		return nil, err
	}
	keys, err := s.departmentFanout(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := s.departments.Delete(ctx, d.ID); err != nil {
		return nil, err
	}
	s.notify(ctx, keys)
	s.audit(ctx, orgID, actorID, "department_deleted", d.ID)
	return keys, nil
}

// AssignMember adds an org membership to the department. Assigning an
// already-assigned member is a conflict. Only the assigned member's
// resolution changes.
func (s *Service) AssignMember(ctx context.Context, actorID, orgID, departmentID, membershipID string) (*domain.Assignment, []invalidation.Key, error) {
	d, err := s.authorizedDepartment(ctx, actorID, orgID, departmentID)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil || m.OrgID != orgID {
		return nil, nil, ErrMembershipNotFound
	}
	existing, err := s.departments.GetAssignment(ctx, d.ID, membershipID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrAlreadyAssigned
	}
	a := &domain.Assignment{
		ID:           uuid.New().String(),
		DepartmentID: d.ID,
		MembershipID: membershipID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.departments.CreateAssignment(ctx, a); err != nil {
		return nil, nil, err
	}
	keys := []invalidation.Key{invalidation.OrgKey(m.UserID, orgID)}
	s.notify(ctx, keys)
	s.audit(ctx, orgID, actorID, "department_member_assigned", d.ID)
	return a, keys, nil
}

// RemoveMember removes an org membership from the department.
func (s *Service) RemoveMember(ctx context.Context, actorID, orgID, departmentID, membershipID string) ([]invalidation.Key, error) {
	d, err := s.authorizedDepartment(ctx, actorID, orgID, departmentID)
	if err != nil {
		return nil, err
	}
	existing, err := s.departments.GetAssignment(ctx, d.ID, membershipID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotAssigned
	}
	m, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if err := s.departments.DeleteAssignment(ctx, d.ID, membershipID); err != nil {
		return nil, err
	}
	var keys []invalidation.Key
	if m != nil {
		keys = []invalidation.Key{invalidation.OrgKey(m.UserID, orgID)}
	}
	s.notify(ctx, keys)
	s.audit(ctx, orgID, actorID, "department_member_removed", d.ID)
	return keys, nil
}

// GrantPermission adds a permission key to the department. Granting an
// already-granted key is a conflict. Every member of the department gains
// the key, so the fan-out covers all of them.
func (s *Service) GrantPermission(ctx context.Context, actorID, orgID, departmentID string, key permission.Key) (*domain.PermissionGrant, []invalidation.Key, error) {
	if !permission.ValidOrgKey(key) {
		return nil, nil, ErrUnknownKey
	}
	d, err := s.authorizedDepartment(ctx, actorID, orgID, departmentID)
	if err != nil {
		return nil, nil, err
	}
	existing, err := s.departments.GetGrant(ctx, d.ID, string(key))
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrAlreadyGranted
	}
	g := &domain.PermissionGrant{
		ID:            uuid.New().String(),
		DepartmentID:  d.ID,
		PermissionKey: key,
		GrantedBy:     actorID,
		GrantedAt:     time.Now().UTC(),
	}
	if err := s.departments.CreateGrant(ctx, g); err != nil {
		return nil, nil, err
	}
	keys, err := s.departmentFanout(ctx, d)
	if err != nil {
		return nil, nil, err
	}
	s.notify(ctx, keys)
	s.audit(ctx, orgID, actorID, "department_permission_granted", d.ID)
	return g, keys, nil
}

// RevokePermission removes a permission key from the department. Every
// member of the department loses the key, not only the actor: the fan-out
// covers the whole member list.
func (s *Service) RevokePermission(ctx context.Context, actorID, orgID, departmentID string, key permission.Key) ([]invalidation.Key, error) {
	d, err := s.authorizedDepartment(ctx, actorID, orgID, departmentID)
	if err != nil {
		return nil, err
	}
	existing, err := s.departments.GetGrant(ctx, d.ID, string(key))
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrGrantNotFound
	}
	if err := s.departments.DeleteGrant(ctx, d.ID, string(key)); err != nil {
		return nil, err
	}
	keys, err := s.departmentFanout(ctx, d)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, keys)
	s.audit(ctx, orgID, actorID, "department_permission_revoked", d.ID)
	return keys, nil
}

// authorizedDepartment checks the actor's permission and loads the
// department. A department belonging to a different org reports not-found,
// never forbidden, so existence does not leak across tenants.
func (s *Service) authorizedDepartment(ctx context.Context, actorID, orgID, departmentID string) (*domain.Department, error) {
	if err := rbac.RequireOrgPermission(ctx, s.checker, actorID, orgID, permission.OrgDepartmentsManage); err != nil {
		return nil, err
	}
	d, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if d == nil || d.OrgID != orgID {
		return nil, ErrDepartmentNotFound
	}
	return d, nil
}

// departmentFanout enumerates the invalidation keys for every member of the
// department: one org-scope key per active membership's user.
func (s *Service) departmentFanout(ctx context.Context, d *domain.Department) ([]invalidation.Key, error) {
	assignments, err := s.departments.ListAssignmentsByDepartment(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.MembershipID)
	}
	members, err := s.memberships.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	keys := make([]invalidation.Key, 0, len(members))
	for _, m := range members {
		keys = append(keys, invalidation.OrgKey(m.UserID, d.OrgID))
	}
	return invalidation.Dedupe(keys), nil
}

func (s *Service) notify(ctx context.Context, keys []invalidation.Key) {
	if len(keys) == 0 {
		return
	}
	if err := s.notifier.Invalidate(ctx, keys); err != nil {
		log.Printf("department: invalidation notify failed: %v", err)
	}
}

func (s *Service) audit(ctx context.Context, orgID, actorID, action, departmentID string) {
	if s.auditor == nil {
		return
	}
	s.auditor.LogEvent(ctx, orgID, actorID, action, "department", departmentID)
}
