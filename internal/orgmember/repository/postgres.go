package repository

import (
	"context"
	"database/sql"
	"errors"

	"planhub/backend/internal/orgmember/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an org membership repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const membershipColumns = "id, user_id, org_id, role, status, created_at, updated_at"

// GetByUserAndOrg returns the membership for the given user and org, or nil
// if not found. It returns an error only for database failures, not for
// missing rows.
func (r *PostgresRepository) GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+membershipColumns+" FROM org_memberships WHERE user_id = $1 AND org_id = $2",
		userID, orgID)
	return scanMembership(row)
}

// GetByID returns the membership for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+membershipColumns+" FROM org_memberships WHERE id = $1", id)
	return scanMembership(row)
}

// ListByOrg returns all memberships for the given org, any status.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+membershipColumns+" FROM org_memberships WHERE org_id = $1 ORDER BY created_at", orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

// ListByIDs returns the memberships whose IDs are in ids. Missing IDs are
// skipped, not errors; the fan-out enumeration tolerates rows deleted
// between fetches.
func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Membership, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+membershipColumns+" FROM org_memberships WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

// Create persists the membership. The membership must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO org_memberships (id, user_id, org_id, role, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.UserID, m.OrgID, string(m.Role), string(m.Status), m.CreatedAt, m.UpdatedAt)
	return err
}

// UpdateStatus transitions the membership's lifecycle status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE org_memberships SET status = $1, updated_at = now() WHERE id = $2",
		string(status), id)
	return err
}

// UpdateRole changes the membership's role.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE org_memberships SET role = $1, updated_at = now() WHERE id = $2",
		string(role), id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (*domain.Membership, error) {
	var m domain.Membership
	var role, status string
	err := row.Scan(&m.ID, &m.UserID, &m.OrgID, &role, &status, &m.CreatedAt, &m.UpdatedAt)
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

func collectMemberships(rows *sql.Rows) ([]*domain.Membership, error) {
	var out []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
