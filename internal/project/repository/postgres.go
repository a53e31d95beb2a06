package repository

import (
	"context"
	"database/sql"
	"errors"

	"planhub/backend/internal/project/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a project repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetProject returns the project for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	err := r.db.QueryRowContext(ctx,
		"SELECT id, workspace_id, name, created_at FROM projects WHERE id = $1", id).
		Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// CreateProject persists the project. The project must have ID set.
func (r *PostgresRepository) CreateProject(ctx context.Context, p *domain.Project) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (id, workspace_id, name, created_at) VALUES ($1, $2, $3, $4)",
		p.ID, p.WorkspaceID, p.Name, p.CreatedAt)
	return err
}

const projectMembershipColumns = "id, project_id, user_id, role, status, created_at, updated_at"

// GetMembershipByUserAndProject returns the membership for the given user and
// project, or nil if not found.
func (r *PostgresRepository) GetMembershipByUserAndProject(ctx context.Context, userID, projectID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+projectMembershipColumns+" FROM project_memberships WHERE user_id = $1 AND project_id = $2",
		userID, projectID)
	return scanProjectMembership(row)
}

// ListMembershipsByProject returns all memberships for the project, any
// status. Used by the team service to enumerate the invalidation fan-out.
func (r *PostgresRepository) ListMembershipsByProject(ctx context.Context, projectID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+projectMembershipColumns+" FROM project_memberships WHERE project_id = $1 ORDER BY created_at",
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Membership
	for rows.Next() {
		m, err := scanProjectMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateMembership persists the membership. The membership must have ID set.
func (r *PostgresRepository) CreateMembership(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_memberships (id, project_id, user_id, role, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.ProjectID, m.UserID, string(m.Role), string(m.Status), m.CreatedAt, m.UpdatedAt)
	return err
}

// UpdateMembershipStatus transitions the membership's lifecycle status.
func (r *PostgresRepository) UpdateMembershipStatus(ctx context.Context, id string, status domain.Status) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE project_memberships SET status = $1, updated_at = now() WHERE id = $2",
		string(status), id)
	return err
}

// UpdateMembershipRole changes the membership's role.
func (r *PostgresRepository) UpdateMembershipRole(ctx context.Context, id string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE project_memberships SET role = $1, updated_at = now() WHERE id = $2",
		string(role), id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProjectMembership(row rowScanner) (*domain.Membership, error) {
	var m domain.Membership
	var role, status string
	err := row.Scan(&m.ID, &m.ProjectID, &m.UserID, &role, &status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Role = domain.Role(role)
	m.Status = domain.Status(status)
	return &m, nil
}
