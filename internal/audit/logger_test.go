package audit

import (
	"context"
	"errors"
	"testing"

	"planhub/backend/internal/audit/domain"
)

// mockRepository implements the audit repository for tests.
type mockRepository struct {
	entries []*domain.AuditLog
	err     error
}

func (m *mockRepository) ListByScope(ctx context.Context, scopeID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return m.entries, nil
}

func (m *mockRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, a)
	return nil
}

func TestLogEvent(t *testing.T) {
	repo := &mockRepository{}
	l := NewLogger(repo)

	l.LogEvent(context.Background(), "org-1", "actor-1", "department_created", "department", "dept-1")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" {
		t.Error("entry ID not set")
	}
	if e.ScopeID != "org-1" || e.ActorID != "actor-1" || e.Action != "department_created" || e.Resource != "department" || e.ResourceID != "dept-1" {
		t.Errorf("entry = %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("entry CreatedAt not set")
	}
}

func TestLogEvent_WriteFailureIsSwallowed(t *testing.T) {
	l := NewLogger(&mockRepository{err: errors.New("store down")})

	// Must not panic; the mutation being audited already succeeded.
	l.LogEvent(context.Background(), "org-1", "actor-1", "department_deleted", "department", "dept-1")
}

func TestLogEvent_NilLogger(t *testing.T) {
	var l *Logger
	l.LogEvent(context.Background(), "org-1", "actor-1", "noop", "department", "dept-1")
}
