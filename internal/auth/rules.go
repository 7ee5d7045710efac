package auth

import "net/http"

// Permission is one of the seven flags an access rule can grant.
type Permission uint8

const (
	PermReadOwn Permission = iota
	PermReadAll
	PermCreate
	PermUpdateOwn
	PermUpdateAll
	PermDeleteOwn
	PermDeleteAll
)

// methodPermissions is the finite method-to-required-flags table. The first
// satisfied flag grants view-level access; the own/all pairing drives the
// object-level check.
var methodPermissions = map[string][]Permission{
	http.MethodGet:    {PermReadAll, PermReadOwn},
	http.MethodPost:   {PermCreate},
	http.MethodPut:    {PermUpdateAll, PermUpdateOwn},
	http.MethodPatch:  {PermUpdateAll, PermUpdateOwn},
	http.MethodDelete: {PermDeleteAll, PermDeleteOwn},
}

// methodOwnAll maps a method to its (own, all) flag pair for object-level
// checks. POST has no object-level pair: creation has no existing owner.
var methodOwnAll = map[string][2]Permission{
	http.MethodGet:    {PermReadOwn, PermReadAll},
	http.MethodPut:    {PermUpdateOwn, PermUpdateAll},
	http.MethodPatch:  {PermUpdateOwn, PermUpdateAll},
	http.MethodDelete: {PermDeleteOwn, PermDeleteAll},
}

// Has reports whether the rule grants the given permission flag.
func (r AccessRule) Has(p Permission) bool {
	switch p {
	case PermReadOwn:
		return r.ReadOwn
	case PermReadAll:
		return r.ReadAll
	case PermCreate:
		return r.Create
	case PermUpdateOwn:
		return r.UpdateOwn
	case PermUpdateAll:
		return r.UpdateAll
	case PermDeleteOwn:
		return r.DeleteOwn
	case PermDeleteAll:
		return r.DeleteAll
	}
	return false
}

// RuleSet is every access rule the principal's roles hold for one element.
type RuleSet []AccessRule

// Grants reports whether any rule in the set carries the flag. Effective
// permission is the OR across all held roles: a stricter role never reduces
// what another role grants.
func (rs RuleSet) Grants(p Permission) bool {
	for _, rule := range rs {
		if rule.Has(p) {
			return true
		}
	}
	return false
}

// GrantsAny reports whether any rule grants at least one of the flags.
func (rs RuleSet) GrantsAny(perms ...Permission) bool {
	for _, p := range perms {
		if rs.Grants(p) {
			return true
		}
	}
	return false
}
