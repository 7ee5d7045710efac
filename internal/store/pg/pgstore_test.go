package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func TestUserCreateMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), "dup@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	now := time.Now().UTC()
	err := store.Users(context.Background()).Create(context.Background(), &auth.User{
		ID: "u1", Email: "dup@example.com", PasswordHash: "h", IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserFindByEmail(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "first_name", "last_name", "coalesce", "is_active", "created_at", "updated_at"}).
		AddRow("u1", "a@example.com", "hash", "Alice", "Smith", "", true, now, now)
	mock.ExpectQuery("select (.+) from users where email").WithArgs("a@example.com").WillReturnRows(rows)

	user, err := store.Users(context.Background()).FindByEmail(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user.ID != "u1" || user.Email != "a@example.com" || !user.IsActive {
		t.Fatalf("unexpected user: %+v", user)
	}

	mock.ExpectQuery("select (.+) from users where email").WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if _, err := store.Users(context.Background()).FindByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRoleAssignMapsConstraintErrors(t *testing.T) {
	store, mock := newMockStore(t)

	ur := &auth.UserRole{ID: "ur1", UserID: "u1", RoleID: "r1", AssignedAt: time.Now().UTC()}

	mock.ExpectExec("insert into user_roles").
		WithArgs(ur.ID, ur.UserID, ur.RoleID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	if err := store.Roles(context.Background()).Assign(context.Background(), ur); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("duplicate assignment: expected ErrConflict, got %v", err)
	}

	mock.ExpectExec("insert into user_roles").
		WithArgs(ur.ID, ur.UserID, ur.RoleID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})
	if err := store.Roles(context.Background()).Assign(context.Background(), ur); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("missing user/role: expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRulesForJoinsByElementCode(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "role_id", "element_id",
		"read_own", "read_all", "can_create", "update_own", "update_all", "delete_own", "delete_all",
		"created_at", "updated_at"}).
		AddRow("ar1", "r1", "e1", true, false, true, true, false, true, false, now, now).
		AddRow("ar2", "r2", "e1", false, true, false, false, false, false, false, now, now)
	mock.ExpectQuery("from access_rules ar").WithArgs("products", "r1", "r2").WillReturnRows(rows)

	set, err := store.Rules(context.Background()).RulesFor(context.Background(), []string{"r1", "r2"}, "products")
	if err != nil {
		t.Fatalf("RulesFor: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(set))
	}
	if !set.Grants(auth.PermReadAll) || !set.Grants(auth.PermCreate) {
		t.Fatalf("union lost flags: %+v", set)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRulesForEmptyRoleList(t *testing.T) {
	store, _ := newMockStore(t)
	set, err := store.Rules(context.Background()).RulesFor(context.Background(), nil, "products")
	if err != nil {
		t.Fatalf("RulesFor: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %+v", set)
	}
}

func TestSessionRotateGuard(t *testing.T) {
	store, mock := newMockStore(t)
	exp := time.Now().Add(15 * time.Minute)
	refreshExp := time.Now().Add(7 * 24 * time.Hour)

	mock.ExpectExec("update sessions").
		WithArgs("s1", "old-hash", "new-token-hash", "new-refresh-hash", exp, refreshExp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Sessions(context.Background()).Rotate(context.Background(), "s1", "old-hash", "new-token-hash", "new-refresh-hash", exp, refreshExp); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	// A replay or lost race matches zero rows.
	mock.ExpectExec("update sessions").
		WithArgs("s1", "old-hash", "new-token-hash", "new-refresh-hash", exp, refreshExp).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := store.Sessions(context.Background()).Rotate(context.Background(), "s1", "old-hash", "new-token-hash", "new-refresh-hash", exp, refreshExp)
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on zero rows, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionDeactivate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update sessions set is_active = false where token_hash").
		WithArgs("hash-1").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Sessions(context.Background()).Deactivate(context.Background(), "hash-1"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	mock.ExpectExec("update sessions set is_active = false where token_hash").
		WithArgs("unknown").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.Sessions(context.Background()).Deactivate(context.Background(), "unknown"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
