package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
)

type roleStore Store

const roleColumns = `id, name, code, coalesce(description,''), created_at`

func scanRole(row interface{ Scan(...any) error }) (*auth.Role, error) {
	var r auth.Role
	err := row.Scan(&r.ID, &r.Name, &r.Code, &r.Description, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *roleStore) Create(ctx context.Context, role *auth.Role) error {
	_, err := s.db.ExecContext(ctx, `
		insert into roles (id, name, code, description, created_at)
		values ($1, $2, $3, $4, $5)
	`, role.ID, role.Name, role.Code, nullIfEmpty(role.Description), role.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *roleStore) Find(ctx context.Context, id string) (*auth.Role, error) {
	row := s.db.QueryRowContext(ctx, `select `+roleColumns+` from roles where id = $1`, id)
	return scanRole(row)
}

func (s *roleStore) FindByCode(ctx context.Context, code string) (*auth.Role, error) {
	row := s.db.QueryRowContext(ctx, `select `+roleColumns+` from roles where code = $1`, code)
	return scanRole(row)
}

func (s *roleStore) List(ctx context.Context) ([]*auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `select `+roleColumns+` from roles order by code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*auth.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *roleStore) Update(ctx context.Context, role *auth.Role) error {
	res, err := s.db.ExecContext(ctx, `
		update roles set name = $2, code = $3, description = $4 where id = $1
	`, role.ID, role.Name, role.Code, nullIfEmpty(role.Description))
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *roleStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from roles where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *roleStore) Assign(ctx context.Context, ur *auth.UserRole) error {
	_, err := s.db.ExecContext(ctx, `
		insert into user_roles (id, user_id, role_id, assigned_at, assigned_by)
		values ($1, $2, $3, $4, $5)
	`, ur.ID, ur.UserID, ur.RoleID, ur.AssignedAt, nullIfEmpty(ur.AssignedBy))
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return auth.ErrConflict
			case pgErrForeignKeyViolation:
				return auth.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *roleStore) Revoke(ctx context.Context, userID, roleID string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from user_roles where user_id = $1 and role_id = $2
	`, userID, roleID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *roleStore) RolesForUser(ctx context.Context, userID string) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.name, r.code, coalesce(r.description,''), r.created_at
		from user_roles ur
		join roles r on r.id = ur.role_id
		where ur.user_id = $1
		order by r.code
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []auth.Role
	for rows.Next() {
		var r auth.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Code, &r.Description, &r.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}
