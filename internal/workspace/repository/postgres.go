package repository

import (
	"context"
	"database/sql"
	"errors"

	"planhub/backend/internal/workspace/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a workspace membership repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetMembershipByUserAndWorkspace returns the membership for the given user
// and workspace, or nil if not found. Rows carry either a target-model role
// or a legacy label; legacy labels are mapped here so callers only ever see
// the target model.
func (r *PostgresRepository) GetMembershipByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*domain.Membership, error) {
	var m domain.Membership
	var role string
	var legacyRole sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, user_id, COALESCE(role, ''), legacy_role, status, created_at
		 FROM workspace_memberships WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID).
		Scan(&m.ID, &m.WorkspaceID, &m.UserID, &role, &legacyRole, &m.Status, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if role != "" {
		m.Role = domain.Role(role)
	} else if legacyRole.Valid {
		m.Role = domain.LegacyRoleToWorkspaceRole(domain.LegacyRole(legacyRole.String))
	} else {
		m.Role = domain.RoleViewer
	}
	return &m, nil
}
