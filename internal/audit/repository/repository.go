package repository

import (
	"context"

	"planhub/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	ListByScope(ctx context.Context, scopeID string, limit, offset int32) ([]*domain.AuditLog, error)
	Create(ctx context.Context, a *domain.AuditLog) error
}
