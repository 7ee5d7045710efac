package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DmitriyGrigoriev/rolegate/internal/ids"
	"github.com/DmitriyGrigoriev/rolegate/internal/token"
)

const (
	// DefaultRoleCode is assigned to every new registration when seeded.
	DefaultRoleCode = "user"
	// AdminRoleCode gates the administrative API.
	AdminRoleCode = "admin"
)

// Service coordinates registration, login, logout, refresh and profile
// mutation on top of the token codec and the session store.
type Service struct {
	store Store
	codec *token.Codec
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the lifecycle orchestrator.
func NewService(store Store, codec *token.Codec, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	s := &Service{store: store, codec: codec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	MiddleName      string
}

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresIn        int       `json:"expires_in"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// Register creates a new account and assigns the default role when the seed
// data provides one.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Password != in.PasswordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}

	// Tolerant of missing seed data: no default role, no assignment.
	role, err := s.store.Roles(ctx).FindByCode(ctx, DefaultRoleCode)
	switch {
	case errors.Is(err, ErrNotFound):
		return user, nil
	case err != nil:
		return nil, err
	}
	ur := &UserRole{ID: ids.New(), UserID: user.ID, RoleID: role.ID, AssignedAt: now}
	if err := s.store.Roles(ctx).Assign(ctx, ur); err != nil && !errors.Is(err, ErrConflict) {
		return nil, err
	}
	return user, nil
}

// Login authenticates credentials and opens a new session. Unknown email,
// wrong password and deactivated accounts all fail with the same error.
func (s *Service) Login(ctx context.Context, email, password string, meta ClientMeta) (*Principal, *TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}
	user, err := s.store.Users(ctx).FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.mintPair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	session := &Session{
		ID:               ids.New(),
		UserID:           user.ID,
		TokenHash:        token.Hash(pair.AccessToken),
		RefreshTokenHash: token.Hash(pair.RefreshToken),
		ExpiresAt:        pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		IPAddress:        meta.IP,
		UserAgent:        meta.UserAgent,
		IsActive:         true,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.store.Sessions(ctx).Create(ctx, session); err != nil {
		return nil, nil, err
	}

	principal, err := s.principalFor(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return principal, pair, nil
}

// Authenticate resolves a bearer access token into a principal: valid
// signature and expiry, live session, active account.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	claims, err := s.codec.Verify(raw)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims.Kind != token.KindAccess {
		return nil, ErrUnauthorized
	}

	session, err := s.store.Sessions(ctx).FindActiveByTokenHash(ctx, token.Hash(raw))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if s.now().After(session.ExpiresAt) {
		return nil, ErrUnauthorized
	}

	user, err := s.store.Users(ctx).Find(ctx, claims.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || user.ID != session.UserID {
		return nil, ErrUnauthorized
	}
	return s.principalFor(ctx, user)
}

// Logout deactivates the session tied to the presented token. Other sessions
// of the same user stay active.
func (s *Service) Logout(ctx context.Context, raw string) error {
	err := s.store.Sessions(ctx).Deactivate(ctx, token.Hash(raw))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Refresh rotates the session's token pair. The presented refresh token is
// single-use: a replay after a successful rotation fails.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (*TokenPair, error) {
	claims, err := s.codec.Verify(rawRefresh)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims.Kind != token.KindRefresh {
		return nil, ErrUnauthorized
	}

	oldHash := token.Hash(rawRefresh)
	session, err := s.store.Sessions(ctx).FindActiveByRefreshHash(ctx, oldHash)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if s.now().After(session.RefreshExpiresAt) {
		return nil, ErrUnauthorized
	}

	pair, err := s.mintPair(session.UserID)
	if err != nil {
		return nil, err
	}
	err = s.store.Sessions(ctx).Rotate(ctx, session.ID, oldHash,
		token.Hash(pair.AccessToken), token.Hash(pair.RefreshToken),
		pair.AccessExpiresAt, pair.RefreshExpiresAt)
	if errors.Is(err, ErrNotFound) {
		// Lost the race against a concurrent refresh or logout.
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// UpdateProfile mutates the caller's name fields.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error) {
	if upd.FirstName != nil {
		trimmed := strings.TrimSpace(*upd.FirstName)
		upd.FirstName = &trimmed
	}
	if upd.LastName != nil {
		trimmed := strings.TrimSpace(*upd.LastName)
		upd.LastName = &trimmed
	}
	if upd.MiddleName != nil {
		trimmed := strings.TrimSpace(*upd.MiddleName)
		upd.MiddleName = &trimmed
	}
	return s.store.Users(ctx).UpdateProfile(ctx, userID, upd)
}

// DeactivateAccount soft-deletes the account and kills every active session.
func (s *Service) DeactivateAccount(ctx context.Context, userID string) error {
	if err := s.store.Users(ctx).SetActive(ctx, userID, false); err != nil {
		return err
	}
	return s.store.Sessions(ctx).DeactivateAllForUser(ctx, userID)
}

// AssignRole grants a role to a user, recording the assigning actor.
func (s *Service) AssignRole(ctx context.Context, userID, roleID, assignedBy string) (*UserRole, error) {
	if _, err := s.store.Users(ctx).Find(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.store.Roles(ctx).Find(ctx, roleID); err != nil {
		return nil, err
	}
	ur := &UserRole{
		ID:         ids.New(),
		UserID:     userID,
		RoleID:     roleID,
		AssignedAt: s.now().UTC(),
		AssignedBy: assignedBy,
	}
	if err := s.store.Roles(ctx).Assign(ctx, ur); err != nil {
		return nil, err
	}
	return ur, nil
}

// RevokeRole removes a role assignment.
func (s *Service) RevokeRole(ctx context.Context, userID, roleID string) error {
	return s.store.Roles(ctx).Revoke(ctx, userID, roleID)
}

// RolesForUser loads the user's roles (used when rendering user payloads).
func (s *Service) RolesForUser(ctx context.Context, userID string) ([]Role, error) {
	return s.store.Roles(ctx).RolesForUser(ctx, userID)
}

func (s *Service) principalFor(ctx context.Context, user *User) (*Principal, error) {
	roles, err := s.store.Roles(ctx).RolesForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Principal{User: user, Roles: roles}, nil
}

func (s *Service) mintPair(userID string) (*TokenPair, error) {
	access, accessExp, err := s.codec.Issue(userID, token.KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.codec.Issue(userID, token.KindRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresIn:        int(s.codec.AccessTTL().Seconds()),
		TokenType:        "Bearer",
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}
