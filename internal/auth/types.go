package auth

import "time"

// User is an account identified by email. Accounts are never hard-deleted:
// deactivation flips IsActive and kills the account's sessions.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	MiddleName   string    `json:"middle_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns "last first middle", falling back to the email.
func (u User) FullName() string {
	name := u.LastName
	if u.FirstName != "" {
		name += " " + u.FirstName
	}
	if u.MiddleName != "" {
		name += " " + u.MiddleName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// Role groups access rules under a unique code such as "admin" or "user".
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserRole links a user to a role and records who granted it.
type UserRole struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RoleID     string    `json:"role_id"`
	AssignedAt time.Time `json:"assigned_at"`
	AssignedBy string    `json:"assigned_by,omitempty"`
}

// BusinessElement is a protected resource category ("products", "orders").
type BusinessElement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AccessRule is the permission bitset of one role over one business element.
// The pair (RoleID, ElementID) is unique.
type AccessRule struct {
	ID        string `json:"id"`
	RoleID    string `json:"role_id"`
	ElementID string `json:"element_id"`

	ReadOwn   bool `json:"read_own"`
	ReadAll   bool `json:"read_all"`
	Create    bool `json:"create"`
	UpdateOwn bool `json:"update_own"`
	UpdateAll bool `json:"update_all"`
	DeleteOwn bool `json:"delete_own"`
	DeleteAll bool `json:"delete_all"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is the server-side record of one issued token pair. Raw tokens are
// never stored, only their SHA-256 hashes.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	TokenHash        string    `json:"-"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// ClientMeta carries per-login request attributes stored on the session.
type ClientMeta struct {
	IP        string
	UserAgent string
}
