package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
)

type ruleStore Store

const ruleColumns = `id, role_id, element_id,
	read_own, read_all, can_create, update_own, update_all, delete_own, delete_all,
	created_at, updated_at`

func scanRule(row interface{ Scan(...any) error }) (*auth.AccessRule, error) {
	var r auth.AccessRule
	err := row.Scan(&r.ID, &r.RoleID, &r.ElementID,
		&r.ReadOwn, &r.ReadAll, &r.Create, &r.UpdateOwn, &r.UpdateAll, &r.DeleteOwn, &r.DeleteAll,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Upsert inserts the rule or, on the (role_id, element_id) key, replaces its
// flag set.
func (s *ruleStore) Upsert(ctx context.Context, rule *auth.AccessRule) error {
	_, err := s.db.ExecContext(ctx, `
		insert into access_rules (id, role_id, element_id,
			read_own, read_all, can_create, update_own, update_all, delete_own, delete_all,
			created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		on conflict (role_id, element_id) do update set
			read_own = excluded.read_own,
			read_all = excluded.read_all,
			can_create = excluded.can_create,
			update_own = excluded.update_own,
			update_all = excluded.update_all,
			delete_own = excluded.delete_own,
			delete_all = excluded.delete_all,
			updated_at = excluded.updated_at
	`, rule.ID, rule.RoleID, rule.ElementID,
		rule.ReadOwn, rule.ReadAll, rule.Create, rule.UpdateOwn, rule.UpdateAll, rule.DeleteOwn, rule.DeleteAll,
		rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return auth.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *ruleStore) Find(ctx context.Context, id string) (*auth.AccessRule, error) {
	row := s.db.QueryRowContext(ctx, `select `+ruleColumns+` from access_rules where id = $1`, id)
	return scanRule(row)
}

func (s *ruleStore) List(ctx context.Context) ([]*auth.AccessRule, error) {
	rows, err := s.db.QueryContext(ctx, `select `+ruleColumns+` from access_rules order by role_id, element_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*auth.AccessRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *ruleStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from access_rules where id = $1`, id)
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

// RulesFor joins access_rules to the element identified by code for the given
// roles. An unknown code simply matches no rows.
func (s *ruleStore) RulesFor(ctx context.Context, roleIDs []string, elementCode string) (auth.RuleSet, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(roleIDs))
	args := make([]any, 0, len(roleIDs)+1)
	args = append(args, elementCode)
	for i, id := range roleIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx, `
		select ar.id, ar.role_id, ar.element_id,
			ar.read_own, ar.read_all, ar.can_create, ar.update_own, ar.update_all, ar.delete_own, ar.delete_all,
			ar.created_at, ar.updated_at
		from access_rules ar
		join business_elements be on be.id = ar.element_id
		where be.code = $1 and ar.role_id in (`+strings.Join(placeholders, ", ")+`)
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var set auth.RuleSet
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		set = append(set, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}
