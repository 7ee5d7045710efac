package auth

import (
	"context"
	"time"
)

// Store describes the persistence operations required by the auth subsystem.
type Store interface {
	Users(ctx context.Context) UserStore
	Roles(ctx context.Context) RoleStore
	Elements(ctx context.Context) ElementStore
	Rules(ctx context.Context) RuleStore
	Sessions(ctx context.Context) SessionStore
}

// ProfileUpdate carries optional profile mutations; nil fields are untouched.
type ProfileUpdate struct {
	FirstName  *string
	LastName   *string
	MiddleName *string
}

// UserStore manages accounts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// RoleStore manages roles and role assignments.
type RoleStore interface {
	Create(ctx context.Context, role *Role) error
	Find(ctx context.Context, id string) (*Role, error)
	FindByCode(ctx context.Context, code string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id string) error

	Assign(ctx context.Context, ur *UserRole) error
	Revoke(ctx context.Context, userID, roleID string) error
	RolesForUser(ctx context.Context, userID string) ([]Role, error)
}

// ElementStore manages the business element catalog.
type ElementStore interface {
	Create(ctx context.Context, el *BusinessElement) error
	Find(ctx context.Context, id string) (*BusinessElement, error)
	FindByCode(ctx context.Context, code string) (*BusinessElement, error)
	List(ctx context.Context) ([]*BusinessElement, error)
	Update(ctx context.Context, el *BusinessElement) error
	Delete(ctx context.Context, id string) error
}

// RuleStore manages access rules.
type RuleStore interface {
	Upsert(ctx context.Context, rule *AccessRule) error
	Find(ctx context.Context, id string) (*AccessRule, error)
	List(ctx context.Context) ([]*AccessRule, error)
	Delete(ctx context.Context, id string) error

	// RulesFor returns every rule any of the roles holds over the element
	// identified by code. An unknown code yields an empty set, never an error:
	// the engine fails closed on it.
	RulesFor(ctx context.Context, roleIDs []string, elementCode string) (RuleSet, error)
}

// SessionStore manages the token-backed session lifecycle. All mutations are
// atomic at the storage layer.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	FindActiveByTokenHash(ctx context.Context, hash string) (*Session, error)
	FindActiveByRefreshHash(ctx context.Context, hash string) (*Session, error)

	// Rotate replaces the session's hashes and expiries in one guarded update.
	// The guard requires the row to still be active and carry oldRefreshHash;
	// if another refresh or a logout won the race, Rotate returns ErrNotFound.
	Rotate(ctx context.Context, sessionID, oldRefreshHash, newTokenHash, newRefreshHash string, expiresAt, refreshExpiresAt time.Time) error

	Deactivate(ctx context.Context, tokenHash string) error
	DeactivateAllForUser(ctx context.Context, userID string) error
}
