package auth

import "context"

// Engine is the authorization decision point. It is a pure function over the
// request, the principal's rules and object ownership; it never mutates state.
//
// Every ambiguity — nil principal, no roles, unknown element, missing rule,
// missing owner — resolves to deny.
type Engine struct {
	store Store
}

// NewEngine constructs an Engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Authorize performs the view-level check: does any of the principal's roles
// grant one of the method's required flags for the element? On success it
// returns the principal's rule set for the element so object-level checks
// need no second lookup.
func (e *Engine) Authorize(ctx context.Context, p *Principal, elementCode, method string) (RuleSet, error) {
	if p == nil || p.User == nil {
		return nil, ErrUnauthorized
	}

	required, ok := methodPermissions[method]
	if !ok {
		return nil, ErrForbidden
	}

	roleIDs := p.RoleIDs()
	if len(roleIDs) == 0 {
		return nil, ErrForbidden
	}

	rules, err := e.store.Rules(ctx).RulesFor(ctx, roleIDs, elementCode)
	if err != nil {
		return nil, err
	}
	// An unknown element code lands here with an empty set and is denied with
	// the same message as a missing permission.
	if !rules.GrantsAny(required...) {
		return nil, ErrForbidden
	}
	return rules, nil
}

// AuthorizeObject runs both phases for a request targeting a specific object.
// ownerID may be empty, in which case only an "_all" grant can allow.
func (e *Engine) AuthorizeObject(ctx context.Context, p *Principal, elementCode, method, ownerID string) error {
	rules, err := e.Authorize(ctx, p, elementCode, method)
	if err != nil {
		return err
	}
	if !ObjectAllowed(rules, method, ownerID != "" && ownerID == p.User.ID) {
		return ErrForbidden
	}
	return nil
}

// ObjectAllowed is the object-level (phase 2) decision over an already
// fetched rule set: owner with the "_own" flag, or anyone with the "_all"
// flag. Methods without an own/all pair (POST) have nothing to check here.
func ObjectAllowed(rules RuleSet, method string, isOwner bool) bool {
	pair, ok := methodOwnAll[method]
	if !ok {
		return true
	}
	if isOwner && rules.Grants(pair[0]) {
		return true
	}
	return rules.Grants(pair[1])
}
