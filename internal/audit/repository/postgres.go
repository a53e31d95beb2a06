package repository

import (
	"context"
	"database/sql"

	"planhub/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByScope returns audit logs for the given scope (org or project),
// newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByScope(ctx context.Context, scopeID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, scope_id, actor_id, action, resource, resource_id, created_at
		 FROM audit_logs WHERE scope_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		scopeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.ScopeID, &a.ActorID, &a.Action, &a.Resource, &a.ResourceID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, scope_id, actor_id, action, resource, resource_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.ScopeID, a.ActorID, a.Action, a.Resource, a.ResourceID, a.CreatedAt)
	return err
}
