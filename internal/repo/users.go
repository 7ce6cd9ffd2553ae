package repo

import (
	"context"
	"database/sql"

	"rexline/internal/domain"
)

func (r Repo) InsertOrg(ctx context.Context, tx *sql.Tx, org domain.Organization) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO organizations(id,name,created_at) VALUES (?,?,?)`,
		org.ID, org.Name, org.CreatedAt)
	return err
}

func (r Repo) GetOrg(ctx context.Context, id string) (domain.Organization, error) {
	var org domain.Organization
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,created_at FROM organizations WHERE id=?`, id).
		Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err == sql.ErrNoRows {
		return org, ErrNotFound
	}
	return org, err
}

func (r Repo) ListOrgs(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,created_at FROM organizations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Organization
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, org)
	}
	return res, rows.Err()
}

func (r Repo) InsertUserTx(ctx context.Context, tx *sql.Tx, u domain.Actor, now string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO users(id,name,role,org_id,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		u.ID, nullable(u.Name), u.Role, u.OrgID, now, now)
	return err
}

// EnsureUser inserts the user if missing, leaving existing rows untouched.
func (r Repo) EnsureUser(ctx context.Context, tx *sql.Tx, u domain.Actor, now string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO users(id,name,role,org_id,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		u.ID, nullable(u.Name), u.Role, u.OrgID, now, now)
	return err
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.Actor, error) {
	var u domain.Actor
	var name sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,role,org_id FROM users WHERE id=?`, id).
		Scan(&u.ID, &name, &u.Role, &u.OrgID)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	if name.Valid {
		u.Name = name.String
	}
	return u, nil
}

func (r Repo) UpdateUserRoleTx(ctx context.Context, tx *sql.Tx, id string, role domain.Role, now string) error {
	res, err := tx.ExecContext(ctx, `UPDATE users SET role=?, updated_at=? WHERE id=?`, role, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrgValidators returns actors allowed to validate within an org:
// validators and admins. Super-admins are not tied to a single org and
// are excluded from per-org fan-out.
func (r Repo) ListOrgValidators(ctx context.Context, orgID string) ([]domain.Actor, error) {
	return r.listUsers(ctx, `SELECT id,name,role,org_id FROM users WHERE org_id=? AND role IN ('validator','admin') ORDER BY id`, orgID)
}

func (r Repo) ListOrgMembers(ctx context.Context, orgID string) ([]domain.Actor, error) {
	return r.listUsers(ctx, `SELECT id,name,role,org_id FROM users WHERE org_id=? ORDER BY id`, orgID)
}

func (r Repo) listUsers(ctx context.Context, query string, args ...any) ([]domain.Actor, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Actor
	for rows.Next() {
		var u domain.Actor
		var name sql.NullString
		if err := rows.Scan(&u.ID, &name, &u.Role, &u.OrgID); err != nil {
			return nil, err
		}
		if name.Valid {
			u.Name = name.String
		}
		res = append(res, u)
	}
	return res, rows.Err()
}
