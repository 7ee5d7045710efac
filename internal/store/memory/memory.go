// Package memory implements the auth persistence contract in process memory.
// It backs local development without a database and the HTTP tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
)

// InMemory implements auth.Store with in-process concurrency safety.
type InMemory struct {
	mu       sync.Mutex
	users    map[string]*auth.User
	roles    map[string]*auth.Role
	elements map[string]*auth.BusinessElement
	rules    map[string]*auth.AccessRule
	sessions map[string]*auth.Session
	userRole map[string]*auth.UserRole // keyed user|role
}

var _ auth.Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		users:    map[string]*auth.User{},
		roles:    map[string]*auth.Role{},
		elements: map[string]*auth.BusinessElement{},
		rules:    map[string]*auth.AccessRule{},
		sessions: map[string]*auth.Session{},
		userRole: map[string]*auth.UserRole{},
	}
}

func (m *InMemory) Users(context.Context) auth.UserStore       { return (*userStore)(m) }
func (m *InMemory) Roles(context.Context) auth.RoleStore       { return (*roleStore)(m) }
func (m *InMemory) Elements(context.Context) auth.ElementStore { return (*elementStore)(m) }
func (m *InMemory) Rules(context.Context) auth.RuleStore       { return (*ruleStore)(m) }
func (m *InMemory) Sessions(context.Context) auth.SessionStore { return (*sessionStore)(m) }

type userStore InMemory

func (m *userStore) Create(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return auth.ErrConflict
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *userStore) Find(_ context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *userStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *userStore) List(_ context.Context) ([]*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*auth.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *userStore) UpdateProfile(_ context.Context, id string, upd auth.ProfileUpdate) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.MiddleName != nil {
		u.MiddleName = *upd.MiddleName
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (m *userStore) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.IsActive = active
	return nil
}

type roleStore InMemory

func (m *roleStore) Create(_ context.Context, role *auth.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.roles {
		if existing.Code == role.Code {
			return auth.ErrConflict
		}
	}
	cp := *role
	m.roles[role.ID] = &cp
	return nil
}

func (m *roleStore) Find(_ context.Context, id string) (*auth.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *roleStore) FindByCode(_ context.Context, code string) (*auth.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Code == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *roleStore) List(_ context.Context) ([]*auth.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*auth.Role, 0, len(m.roles))
	for _, r := range m.roles {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *roleStore) Update(_ context.Context, role *auth.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[role.ID]; !ok {
		return auth.ErrNotFound
	}
	cp := *role
	m.roles[role.ID] = &cp
	return nil
}

func (m *roleStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.roles, id)
	return nil
}

func (m *roleStore) Assign(_ context.Context, ur *auth.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ur.UserID + "|" + ur.RoleID
	if _, ok := m.userRole[key]; ok {
		return auth.ErrConflict
	}
	cp := *ur
	m.userRole[key] = &cp
	return nil
}

func (m *roleStore) Revoke(_ context.Context, userID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "|" + roleID
	if _, ok := m.userRole[key]; !ok {
		return auth.ErrNotFound
	}
	delete(m.userRole, key)
	return nil
}

func (m *roleStore) RolesForUser(_ context.Context, userID string) ([]auth.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []auth.Role
	for _, ur := range m.userRole {
		if ur.UserID != userID {
			continue
		}
		if r, ok := m.roles[ur.RoleID]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

type elementStore InMemory

func (m *elementStore) Create(_ context.Context, el *auth.BusinessElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.elements {
		if existing.Code == el.Code {
			return auth.ErrConflict
		}
	}
	cp := *el
	m.elements[el.ID] = &cp
	return nil
}

func (m *elementStore) Find(_ context.Context, id string) (*auth.BusinessElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.elements[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *el
	return &cp, nil
}

func (m *elementStore) FindByCode(_ context.Context, code string) (*auth.BusinessElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, el := range m.elements {
		if el.Code == code {
			cp := *el
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *elementStore) List(_ context.Context) ([]*auth.BusinessElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*auth.BusinessElement, 0, len(m.elements))
	for _, el := range m.elements {
		cp := *el
		out = append(out, &cp)
	}
	return out, nil
}

func (m *elementStore) Update(_ context.Context, el *auth.BusinessElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.elements[el.ID]; !ok {
		return auth.ErrNotFound
	}
	cp := *el
	m.elements[el.ID] = &cp
	return nil
}

func (m *elementStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.elements[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.elements, id)
	return nil
}

type ruleStore InMemory

func (m *ruleStore) Upsert(_ context.Context, rule *auth.AccessRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rules {
		if existing.RoleID == rule.RoleID && existing.ElementID == rule.ElementID {
			id := existing.ID
			cp := *rule
			cp.ID = id
			m.rules[id] = &cp
			return nil
		}
	}
	cp := *rule
	m.rules[rule.ID] = &cp
	return nil
}

func (m *ruleStore) Find(_ context.Context, id string) (*auth.AccessRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *ruleStore) List(_ context.Context) ([]*auth.AccessRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*auth.AccessRule, 0, len(m.rules))
	for _, r := range m.rules {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *ruleStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

func (m *ruleStore) RulesFor(_ context.Context, roleIDs []string, elementCode string) (auth.RuleSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var element *auth.BusinessElement
	for _, el := range m.elements {
		if el.Code == elementCode {
			element = el
			break
		}
	}
	if element == nil {
		return nil, nil
	}
	roleSet := map[string]struct{}{}
	for _, id := range roleIDs {
		roleSet[id] = struct{}{}
	}
	var out auth.RuleSet
	for _, r := range m.rules {
		if r.ElementID != element.ID {
			continue
		}
		if _, ok := roleSet[r.RoleID]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

type sessionStore InMemory

func (m *sessionStore) Create(_ context.Context, s *auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *sessionStore) FindActiveByTokenHash(_ context.Context, hash string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.IsActive && s.TokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *sessionStore) FindActiveByRefreshHash(_ context.Context, hash string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.IsActive && s.RefreshTokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *sessionStore) Rotate(_ context.Context, sessionID, oldRefreshHash, newTokenHash, newRefreshHash string, expiresAt, refreshExpiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || !s.IsActive || s.RefreshTokenHash != oldRefreshHash {
		return auth.ErrNotFound
	}
	s.TokenHash = newTokenHash
	s.RefreshTokenHash = newRefreshHash
	s.ExpiresAt = expiresAt
	s.RefreshExpiresAt = refreshExpiresAt
	return nil
}

func (m *sessionStore) Deactivate(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.IsActive && s.TokenHash == tokenHash {
			s.IsActive = false
			return nil
		}
	}
	return auth.ErrNotFound
}

func (m *sessionStore) DeactivateAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID {
			s.IsActive = false
		}
	}
	return nil
}
