package repository

import (
	"context"
	"database/sql"
	"errors"

	"planhub/backend/internal/organization/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetOrganizationByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, status, created_at FROM organizations WHERE id = $1", id)
	var o domain.Org
	if err := row.Scan(&o.ID, &o.Name, &o.Status, &o.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// CreateOrganization persists the organization to the database. The organization must have ID set.
func (r *PostgresRepository) CreateOrganization(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO organizations (id, name, status, created_at) VALUES ($1, $2, $3, $4)",
		o.ID, o.Name, o.Status, o.CreatedAt)
	return err
}

// UpdateOrganization updates the existing organization record in the database. Returns an error if the update fails.
func (r *PostgresRepository) UpdateOrganization(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE organizations SET name = $2, status = $3 WHERE id = $1",
		o.ID, o.Name, o.Status)
	return err
}
