package auth

import (
	"context"
	"sync"
	"time"
)

// memStore is an in-memory Store used across the package tests.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*User
	roles    map[string]*Role
	elements map[string]*BusinessElement
	rules    map[string]*AccessRule
	sessions map[string]*Session
	userRole map[string]*UserRole // keyed user|role
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*User{},
		roles:    map[string]*Role{},
		elements: map[string]*BusinessElement{},
		rules:    map[string]*AccessRule{},
		sessions: map[string]*Session{},
		userRole: map[string]*UserRole{},
	}
}

func (m *memStore) Users(context.Context) UserStore       { return (*memUsers)(m) }
func (m *memStore) Roles(context.Context) RoleStore       { return (*memRoles)(m) }
func (m *memStore) Elements(context.Context) ElementStore { return (*memElements)(m) }
func (m *memStore) Rules(context.Context) RuleStore       { return (*memRules)(m) }
func (m *memStore) Sessions(context.Context) SessionStore { return (*memSessions)(m) }

type memUsers memStore

func (m *memUsers) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) Find(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUsers) List(_ context.Context) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, upd ProfileUpdate) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
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

func (m *memUsers) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	return nil
}

type memRoles memStore

func (m *memRoles) Create(_ context.Context, role *Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.roles {
		if existing.Code == role.Code {
			return ErrConflict
		}
	}
	cp := *role
	m.roles[role.ID] = &cp
	return nil
}

func (m *memRoles) Find(_ context.Context, id string) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRoles) FindByCode(_ context.Context, code string) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Code == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRoles) List(_ context.Context) ([]*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Role, 0, len(m.roles))
	for _, r := range m.roles {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRoles) Update(_ context.Context, role *Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[role.ID]; !ok {
		return ErrNotFound
	}
	cp := *role
	m.roles[role.ID] = &cp
	return nil
}

func (m *memRoles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return ErrNotFound
	}
	delete(m.roles, id)
	return nil
}

func (m *memRoles) Assign(_ context.Context, ur *UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ur.UserID + "|" + ur.RoleID
	if _, ok := m.userRole[key]; ok {
		return ErrConflict
	}
	cp := *ur
	m.userRole[key] = &cp
	return nil
}

func (m *memRoles) Revoke(_ context.Context, userID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "|" + roleID
	if _, ok := m.userRole[key]; !ok {
		return ErrNotFound
	}
	delete(m.userRole, key)
	return nil
}

func (m *memRoles) RolesForUser(_ context.Context, userID string) ([]Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Role
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

type memElements memStore

func (m *memElements) Create(_ context.Context, el *BusinessElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.elements {
		if existing.Code == el.Code {
			return ErrConflict
		}
	}
	cp := *el
	m.elements[el.ID] = &cp
	return nil
}

func (m *memElements) Find(_ context.Context, id string) (*BusinessElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.elements[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *el
	return &cp, nil
}

func (m *memElements) FindByCode(_ context.Context, code string) (*BusinessElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, el := range m.elements {
		if el.Code == code {
			cp := *el
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memElements) List(_ context.Context) ([]*BusinessElement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*BusinessElement, 0, len(m.elements))
	for _, el := range m.elements {
		cp := *el
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memElements) Update(_ context.Context, el *BusinessElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.elements[el.ID]; !ok {
		return ErrNotFound
	}
	cp := *el
	m.elements[el.ID] = &cp
	return nil
}

func (m *memElements) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.elements[id]; !ok {
		return ErrNotFound
	}
	delete(m.elements, id)
	return nil
}

type memRules memStore

func (m *memRules) Upsert(_ context.Context, rule *AccessRule) error {
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

func (m *memRules) Find(_ context.Context, id string) (*AccessRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRules) List(_ context.Context) ([]*AccessRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*AccessRule, 0, len(m.rules))
	for _, r := range m.rules {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRules) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

func (m *memRules) RulesFor(_ context.Context, roleIDs []string, elementCode string) (RuleSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var element *BusinessElement
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
	var out RuleSet
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

type memSessions memStore

func (m *memSessions) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) FindActiveByTokenHash(_ context.Context, hash string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.IsActive && s.TokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memSessions) FindActiveByRefreshHash(_ context.Context, hash string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.IsActive && s.RefreshTokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memSessions) Rotate(_ context.Context, sessionID, oldRefreshHash, newTokenHash, newRefreshHash string, expiresAt, refreshExpiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || !s.IsActive || s.RefreshTokenHash != oldRefreshHash {
		return ErrNotFound
	}
	s.TokenHash = newTokenHash
	s.RefreshTokenHash = newRefreshHash
	s.ExpiresAt = expiresAt
	s.RefreshExpiresAt = refreshExpiresAt
	return nil
}

func (m *memSessions) Deactivate(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.IsActive && s.TokenHash == tokenHash {
			s.IsActive = false
			return nil
		}
	}
	return ErrNotFound
}

func (m *memSessions) DeactivateAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID {
			s.IsActive = false
		}
	}
	return nil
}

var _ Store = (*memStore)(nil)
