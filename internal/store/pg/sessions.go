package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
)

type sessionStore Store

const sessionColumns = `id, user_id, token_hash, refresh_token_hash,
	expires_at, refresh_expires_at, coalesce(ip_address,''), coalesce(user_agent,''), is_active, created_at`

func scanSession(row interface{ Scan(...any) error }) (*auth.Session, error) {
	var s auth.Session
	err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.RefreshTokenHash,
		&s.ExpiresAt, &s.RefreshExpiresAt, &s.IPAddress, &s.UserAgent, &s.IsActive, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *sessionStore) Create(ctx context.Context, sess *auth.Session) error {
	_, err := s.db.ExecContext(ctx, `
		insert into sessions (id, user_id, token_hash, refresh_token_hash,
			expires_at, refresh_expires_at, ip_address, user_agent, is_active, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, sess.ID, sess.UserID, sess.TokenHash, sess.RefreshTokenHash,
		sess.ExpiresAt, sess.RefreshExpiresAt, nullIfEmpty(sess.IPAddress), nullIfEmpty(sess.UserAgent), sess.IsActive, sess.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return auth.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *sessionStore) FindActiveByTokenHash(ctx context.Context, hash string) (*auth.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+sessionColumns+` from sessions where token_hash = $1 and is_active
	`, hash)
	return scanSession(row)
}

func (s *sessionStore) FindActiveByRefreshHash(ctx context.Context, hash string) (*auth.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+sessionColumns+` from sessions where refresh_token_hash = $1 and is_active
	`, hash)
	return scanSession(row)
}

// Rotate swaps the session's hashes and expiries in a single guarded update.
// The guard on (is_active, refresh_token_hash) makes rotation single-use: the
// loser of a concurrent refresh matches zero rows.
func (s *sessionStore) Rotate(ctx context.Context, sessionID, oldRefreshHash, newTokenHash, newRefreshHash string, expiresAt, refreshExpiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update sessions
		set token_hash = $3, refresh_token_hash = $4, expires_at = $5, refresh_expires_at = $6
		where id = $1 and is_active and refresh_token_hash = $2
	`, sessionID, oldRefreshHash, newTokenHash, newRefreshHash, expiresAt, refreshExpiresAt)
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

func (s *sessionStore) Deactivate(ctx context.Context, tokenHash string) error {
	res, err := s.db.ExecContext(ctx, `
		update sessions set is_active = false where token_hash = $1 and is_active
	`, tokenHash)
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

func (s *sessionStore) DeactivateAllForUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		update sessions set is_active = false where user_id = $1 and is_active
	`, userID)
	return err
}
