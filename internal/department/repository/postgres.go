package repository

import (
	"context"
	"database/sql"
	"errors"

	"planhub/backend/internal/department/domain"
	"planhub/backend/internal/permission"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a department repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const departmentColumns = "id, org_id, name, color, created_by, created_at, updated_at"

// GetByID returns the department for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+departmentColumns+" FROM departments WHERE id = $1", id)
	return scanDepartment(row)
}

// GetByOrgAndName returns the department with the given name in the org, or
// nil if not found. Used for duplicate-name conflict checks.
func (r *PostgresRepository) GetByOrgAndName(ctx context.Context, orgID, name string) (*domain.Department, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+departmentColumns+" FROM departments WHERE org_id = $1 AND name = $2", orgID, name)
	return scanDepartment(row)
}

// ListByOrg returns all departments in the org ordered by name.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Department, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+departmentColumns+" FROM departments WHERE org_id = $1 ORDER BY name", orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create persists the department. The department must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Department) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO departments (id, org_id, name, color, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.OrgID, d.Name, d.Color, d.CreatedBy, d.CreatedAt, d.UpdatedAt)
	return err
}

// Update writes name and color for an existing department.
func (r *PostgresRepository) Update(ctx context.Context, d *domain.Department) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE departments SET name = $1, color = $2, updated_at = now() WHERE id = $3",
		d.Name, d.Color, d.ID)
	return err
}

// Delete removes the department together with its member assignments and
// permission grants in a single transaction, so a concurrent resolution never
// observes grants without their owning department for longer than one
// statement.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM department_permission_grants WHERE department_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM department_assignments WHERE department_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM departments WHERE id = $1", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListAssignmentsByMembership returns every department assignment for one org
// membership.
func (r *PostgresRepository) ListAssignmentsByMembership(ctx context.Context, membershipID string) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, department_id, membership_id, created_at
		 FROM department_assignments WHERE membership_id = $1`, membershipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ListAssignmentsByDepartment returns every member assignment of one
// department. Used to enumerate the invalidation fan-out.
func (r *PostgresRepository) ListAssignmentsByDepartment(ctx context.Context, departmentID string) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, department_id, membership_id, created_at
		 FROM department_assignments WHERE department_id = $1`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// GetAssignment returns the assignment linking the membership to the
// department, or nil if not found.
func (r *PostgresRepository) GetAssignment(ctx context.Context, departmentID, membershipID string) (*domain.Assignment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, department_id, membership_id, created_at
		 FROM department_assignments WHERE department_id = $1 AND membership_id = $2`,
		departmentID, membershipID)
	var a domain.Assignment
	err := row.Scan(&a.ID, &a.DepartmentID, &a.MembershipID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// CreateAssignment persists the assignment. The assignment must have ID set.
func (r *PostgresRepository) CreateAssignment(ctx context.Context, a *domain.Assignment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO department_assignments (id, department_id, membership_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		a.ID, a.DepartmentID, a.MembershipID, a.CreatedAt)
	return err
}

// DeleteAssignment removes the membership from the department.
func (r *PostgresRepository) DeleteAssignment(ctx context.Context, departmentID, membershipID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM department_assignments WHERE department_id = $1 AND membership_id = $2",
		departmentID, membershipID)
	return err
}

// ListGrantsByDepartments returns every permission grant owned by the given
// departments. Keys outside the organization vocabulary are dropped here so
// stale rows written by an older or newer build stay inert.
func (r *PostgresRepository) ListGrantsByDepartments(ctx context.Context, departmentIDs []string) ([]*domain.PermissionGrant, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, department_id, permission_key, granted_by, granted_at
		 FROM department_permission_grants WHERE department_id = ANY($1)`, departmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.PermissionGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		if !permission.ValidOrgKey(g.PermissionKey) {
			continue
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetGrant returns the grant for (department, key), or nil if not found.
func (r *PostgresRepository) GetGrant(ctx context.Context, departmentID, permissionKey string) (*domain.PermissionGrant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, department_id, permission_key, granted_by, granted_at
		 FROM department_permission_grants WHERE department_id = $1 AND permission_key = $2`,
		departmentID, permissionKey)
	g, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}

// CreateGrant persists the grant. The grant must have ID set.
func (r *PostgresRepository) CreateGrant(ctx context.Context, g *domain.PermissionGrant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO department_permission_grants (id, department_id, permission_key, granted_by, granted_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		g.ID, g.DepartmentID, string(g.PermissionKey), g.GrantedBy, g.GrantedAt)
	return err
}

// DeleteGrant removes one permission key from the department.
func (r *PostgresRepository) DeleteGrant(ctx context.Context, departmentID, permissionKey string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM department_permission_grants WHERE department_id = $1 AND permission_key = $2",
		departmentID, permissionKey)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDepartment(row rowScanner) (*domain.Department, error) {
	var d domain.Department
	err := row.Scan(&d.ID, &d.OrgID, &d.Name, &d.Color, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func scanGrant(row rowScanner) (*domain.PermissionGrant, error) {
	var g domain.PermissionGrant
	var key string
	if err := row.Scan(&g.ID, &g.DepartmentID, &key, &g.GrantedBy, &g.GrantedAt); err != nil {
		return nil, err
	}
	g.PermissionKey = permission.Key(key)
	return &g, nil
}

func collectAssignments(rows *sql.Rows) ([]*domain.Assignment, error) {
	var out []*domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ID, &a.DepartmentID, &a.MembershipID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
