package service

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"planhub/backend/internal/invalidation"
	"planhub/backend/internal/orgmember/domain"
	"planhub/backend/internal/permission"
)

// mockMembershipRepo implements MembershipRepo for tests.
type mockMembershipRepo struct {
	memberships map[string]*domain.Membership
}

func (m *mockMembershipRepo) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	return m.memberships[id], nil
}

func (m *mockMembershipRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	if mem, ok := m.memberships[id]; ok {
		mem.Status = status
	}
	return nil
}

func (m *mockMembershipRepo) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if mem, ok := m.memberships[id]; ok {
		mem.Role = role
	}
	return nil
}

// allowAllChecker grants every actor every key.
type allowAllChecker struct{}

func (allowAllChecker) HasPermission(ctx context.Context, userID, orgID string, key permission.Key) (bool, error) {
	return true, nil
}

// denyAllChecker grants nothing.
type denyAllChecker struct{}

func (denyAllChecker) HasPermission(ctx context.Context, userID, orgID string, key permission.Key) (bool, error) {
	return false, nil
}

// recordingNotifier captures every delivered key batch.
type recordingNotifier struct {
	batches [][]invalidation.Key
}

func (n *recordingNotifier) Invalidate(ctx context.Context, keys []invalidation.Key) error {
	n.batches = append(n.batches, keys)
	return nil
}

func fixture() *mockMembershipRepo {
	return &mockMembershipRepo{memberships: map[string]*domain.Membership{
		"m1": {ID: "m1", UserID: "user-1", OrgID: "org-1", Role: domain.RoleMember, Status: domain.StatusActive},
		"m2": {ID: "m2", UserID: "user-2", OrgID: "org-2", Role: domain.RoleMember, Status: domain.StatusActive},
	}}
}

func TestUpdateMemberStatus(t *testing.T) {
	memberships := fixture()
	notifier := &recordingNotifier{}
	s := NewService(memberships, allowAllChecker{}, notifier, nil)

	keys, err := s.UpdateMemberStatus(context.Background(), "actor-1", "org-1", "m1", domain.StatusRemoved)
	if err != nil {
		t.Fatalf("UpdateMemberStatus: %v", err)
	}
	if len(keys) != 1 || keys[0] != invalidation.OrgKey("user-1", "org-1") {
		t.Errorf("keys = %v, want the member's org key", keys)
	}
	if memberships.memberships["m1"].Status != domain.StatusRemoved {
		t.Error("status not persisted")
	}
	if len(notifier.batches) != 1 {
		t.Errorf("notifier batches = %d, want 1", len(notifier.batches))
	}
}

func TestUpdateMemberRole(t *testing.T) {
	memberships := fixture()
	notifier := &recordingNotifier{}
	s := NewService(memberships, allowAllChecker{}, notifier, nil)

	keys, err := s.UpdateMemberRole(context.Background(), "actor-1", "org-1", "m1", domain.RoleOwner)
	if err != nil {
		t.Fatalf("UpdateMemberRole: %v", err)
	}
	if len(keys) != 1 || keys[0] != invalidation.OrgKey("user-1", "org-1") {
		t.Errorf("keys = %v, want the member's org key", keys)
	}
	if memberships.memberships["m1"].Role != domain.RoleOwner {
		t.Error("role not persisted")
	}
	if len(notifier.batches) != 1 {
		t.Errorf("notifier batches = %d, want 1: a role change flips the owner bypass", len(notifier.batches))
	}
}

func TestUpdateMemberRole_Forbidden(t *testing.T) {
	s := NewService(fixture(), denyAllChecker{}, nil, nil)

	_, err := s.UpdateMemberRole(context.Background(), "actor-1", "org-1", "m1", domain.RoleAdmin)
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("err = %v, want PermissionDenied", err)
	}
}

func TestUpdateMemberStatus_CrossOrgReportsNotFound(t *testing.T) {
	s := NewService(fixture(), allowAllChecker{}, nil, nil)

	_, err := s.UpdateMemberStatus(context.Background(), "actor-1", "org-1", "m2", domain.StatusRemoved)
	if !errors.Is(err, ErrMembershipNotFound) {
		t.Fatalf("err = %v, want ErrMembershipNotFound for a membership of another org", err)
	}
}

func TestUpdateMemberStatus_Unknown(t *testing.T) {
	s := NewService(fixture(), allowAllChecker{}, nil, nil)

	_, err := s.UpdateMemberStatus(context.Background(), "actor-1", "org-1", "m9", domain.StatusRemoved)
	if !errors.Is(err, ErrMembershipNotFound) {
		t.Fatalf("err = %v, want ErrMembershipNotFound", err)
	}
}

func TestUpdateMember_InvalidValues(t *testing.T) {
	s := NewService(fixture(), allowAllChecker{}, nil, nil)

	if _, err := s.UpdateMemberStatus(context.Background(), "actor-1", "org-1", "m1", domain.Status("frozen")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
	if _, err := s.UpdateMemberRole(context.Background(), "actor-1", "org-1", "m1", domain.Role("superuser")); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("err = %v, want ErrInvalidRole", err)
	}
}
