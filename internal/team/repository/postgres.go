package repository

import (
	"context"
	"database/sql"
	"errors"

	"planhub/backend/internal/permission"
	"planhub/backend/internal/team/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a team repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const teamColumns = "id, project_id, name, color, created_at, updated_at"

// GetTeam returns the team for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+teamColumns+" FROM project_teams WHERE id = $1", id)
	return scanTeam(row)
}

// GetTeamByProjectAndName returns the team with the given name in the
// project, or nil if not found. Used for name-collision conflict checks.
func (r *PostgresRepository) GetTeamByProjectAndName(ctx context.Context, projectID, name string) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+teamColumns+" FROM project_teams WHERE project_id = $1 AND name = $2", projectID, name)
	return scanTeam(row)
}

// ListTeamsByProject returns all teams in the project ordered by name.
func (r *PostgresRepository) ListTeamsByProject(ctx context.Context, projectID string) ([]*domain.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+teamColumns+" FROM project_teams WHERE project_id = $1 ORDER BY name", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTeam persists the team. The team must have ID set.
func (r *PostgresRepository) CreateTeam(ctx context.Context, t *domain.Team) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_teams (id, project_id, name, color, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.ProjectID, t.Name, t.Color, t.CreatedAt, t.UpdatedAt)
	return err
}

// UpdateTeam writes name and color for an existing team.
func (r *PostgresRepository) UpdateTeam(ctx context.Context, t *domain.Team) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE project_teams SET name = $1, color = $2, updated_at = now() WHERE id = $3",
		t.Name, t.Color, t.ID)
	return err
}

// DeleteTeam removes the team together with its memberships and grants in a
// single transaction.
func (r *PostgresRepository) DeleteTeam(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM project_permission_grants WHERE team_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM project_team_memberships WHERE team_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM project_teams WHERE id = $1", id); err != nil {
		return err
	}
	return tx.Commit()
}

const teamMembershipColumns = "id, project_id, team_id, user_id, COALESCE(team_role_label, ''), created_at"

// ListMembershipsByUser returns every team membership of one user inside one
// project.
func (r *PostgresRepository) ListMembershipsByUser(ctx context.Context, projectID, userID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+teamMembershipColumns+" FROM project_team_memberships WHERE project_id = $1 AND user_id = $2",
		projectID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTeamMemberships(rows)
}

// ListMembershipsByTeam returns every membership of one team. Used to
// enumerate the invalidation fan-out.
func (r *PostgresRepository) ListMembershipsByTeam(ctx context.Context, teamID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+teamMembershipColumns+" FROM project_team_memberships WHERE team_id = $1", teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTeamMemberships(rows)
}

// GetMembership returns the membership linking the user to the team, or nil
// if not found.
func (r *PostgresRepository) GetMembership(ctx context.Context, teamID, userID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+teamMembershipColumns+" FROM project_team_memberships WHERE team_id = $1 AND user_id = $2",
		teamID, userID)
	var m domain.Membership
	err := row.Scan(&m.ID, &m.ProjectID, &m.TeamID, &m.UserID, &m.TeamRoleLabel, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// CreateMembership persists the team membership. The membership must have ID
// set.
func (r *PostgresRepository) CreateMembership(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_team_memberships (id, project_id, team_id, user_id, team_role_label, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		m.ID, m.ProjectID, m.TeamID, m.UserID, m.TeamRoleLabel, m.CreatedAt)
	return err
}

// DeleteMembership removes the user from the team.
func (r *PostgresRepository) DeleteMembership(ctx context.Context, teamID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM project_team_memberships WHERE team_id = $1 AND user_id = $2", teamID, userID)
	return err
}

// ListGrantsByProject returns every permission grant in the project, team and
// direct alike. Keys outside the project vocabulary are dropped here so stale
// rows stay inert.
func (r *PostgresRepository) ListGrantsByProject(ctx context.Context, projectID string) ([]*domain.PermissionGrant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, permission_key, COALESCE(team_id, ''), COALESCE(user_id, ''), granted_by, granted_at
		 FROM project_permission_grants WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.PermissionGrant
	for rows.Next() {
		var g domain.PermissionGrant
		var key string
		if err := rows.Scan(&g.ID, &g.ProjectID, &key, &g.TeamID, &g.UserID, &g.GrantedBy, &g.GrantedAt); err != nil {
			return nil, err
		}
		g.PermissionKey = permission.Key(key)
		if !permission.ValidProjectKey(g.PermissionKey) {
			continue
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

// CreateGrant persists the grant. Validate must have been called; the
// database additionally enforces target exclusivity with a check constraint.
func (r *PostgresRepository) CreateGrant(ctx context.Context, g *domain.PermissionGrant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_permission_grants (id, project_id, permission_key, team_id, user_id, granted_by, granted_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)`,
		g.ID, g.ProjectID, string(g.PermissionKey), g.TeamID, g.UserID, g.GrantedBy, g.GrantedAt)
	return err
}

// DeleteGrant removes one grant row by ID.
func (r *PostgresRepository) DeleteGrant(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM project_permission_grants WHERE id = $1", id)
	return err
}

// DeleteGrantsByTeam removes every grant assigned to the team.
func (r *PostgresRepository) DeleteGrantsByTeam(ctx context.Context, teamID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM project_permission_grants WHERE team_id = $1", teamID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (*domain.Team, error) {
	var t domain.Team
	err := row.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func collectTeamMemberships(rows *sql.Rows) ([]*domain.Membership, error) {
	var out []*domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.TeamID, &m.UserID, &m.TeamRoleLabel, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
