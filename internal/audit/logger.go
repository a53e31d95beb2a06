// Package audit records administrative mutations on the authorization model.
// Logging is best-effort: a failed write is logged operationally and never
// fails the mutation it describes.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"planhub/backend/internal/audit/domain"
	auditrepo "planhub/backend/internal/audit/repository"
)

// AuditLogger writes a single audit event with explicit action/resource.
// Used by the department and team services on every mutation.
type AuditLogger interface {
	LogEvent(ctx context.Context, scopeID, actorID, action, resource, resourceID string)
}

// Logger implements AuditLogger using the audit repository.
type Logger struct {
	repo auditrepo.Repository
}

// NewLogger returns an AuditLogger that persists to repo.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not
// returned.
func (l *Logger) LogEvent(ctx context.Context, scopeID, actorID, action, resource, resourceID string) {
	if l == nil || l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:         uuid.New().String(),
		ScopeID:    scopeID,
		ActorID:    actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to write %s/%s event: %v", resource, action, err)
	}
}
