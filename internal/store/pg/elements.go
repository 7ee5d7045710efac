package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
)

type elementStore Store

const elementColumns = `id, name, code, coalesce(description,''), created_at`

func scanElement(row interface{ Scan(...any) error }) (*auth.BusinessElement, error) {
	var el auth.BusinessElement
	err := row.Scan(&el.ID, &el.Name, &el.Code, &el.Description, &el.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &el, nil
}

func (s *elementStore) Create(ctx context.Context, el *auth.BusinessElement) error {
	_, err := s.db.ExecContext(ctx, `
		insert into business_elements (id, name, code, description, created_at)
		values ($1, $2, $3, $4, $5)
	`, el.ID, el.Name, el.Code, nullIfEmpty(el.Description), el.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *elementStore) Find(ctx context.Context, id string) (*auth.BusinessElement, error) {
	row := s.db.QueryRowContext(ctx, `select `+elementColumns+` from business_elements where id = $1`, id)
	return scanElement(row)
}

func (s *elementStore) FindByCode(ctx context.Context, code string) (*auth.BusinessElement, error) {
	row := s.db.QueryRowContext(ctx, `select `+elementColumns+` from business_elements where code = $1`, code)
	return scanElement(row)
}

func (s *elementStore) List(ctx context.Context) ([]*auth.BusinessElement, error) {
	rows, err := s.db.QueryContext(ctx, `select `+elementColumns+` from business_elements order by code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elements []*auth.BusinessElement
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return elements, nil
}

func (s *elementStore) Update(ctx context.Context, el *auth.BusinessElement) error {
	res, err := s.db.ExecContext(ctx, `
		update business_elements set name = $2, code = $3, description = $4 where id = $1
	`, el.ID, el.Name, el.Code, nullIfEmpty(el.Description))
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

func (s *elementStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from business_elements where id = $1`, id)
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
