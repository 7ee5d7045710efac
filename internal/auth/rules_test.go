package auth

import (
	"net/http"
	"testing"
)

func TestMethodPermissionTable(t *testing.T) {
	cases := []struct {
		method string
		rule   AccessRule
		want   bool
	}{
		{http.MethodGet, AccessRule{ReadOwn: true}, true},
		{http.MethodGet, AccessRule{ReadAll: true}, true},
		{http.MethodGet, AccessRule{Create: true}, false},
		{http.MethodPost, AccessRule{Create: true}, true},
		{http.MethodPost, AccessRule{ReadAll: true, UpdateAll: true, DeleteAll: true}, false},
		{http.MethodPut, AccessRule{UpdateOwn: true}, true},
		{http.MethodPatch, AccessRule{UpdateAll: true}, true},
		{http.MethodPatch, AccessRule{ReadAll: true}, false},
		{http.MethodDelete, AccessRule{DeleteOwn: true}, true},
		{http.MethodDelete, AccessRule{UpdateAll: true}, false},
	}
	for _, tc := range cases {
		required, ok := methodPermissions[tc.method]
		if !ok {
			t.Fatalf("%s: missing from method table", tc.method)
		}
		got := RuleSet{tc.rule}.GrantsAny(required...)
		if got != tc.want {
			t.Errorf("%s with %+v: got %v, want %v", tc.method, tc.rule, got, tc.want)
		}
	}
}

func TestMethodTableCoversNoExoticMethods(t *testing.T) {
	for _, method := range []string{http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodConnect} {
		if _, ok := methodPermissions[method]; ok {
			t.Errorf("%s should not be grantable", method)
		}
	}
}

func TestRuleSetORSemantics(t *testing.T) {
	rs := RuleSet{
		{ReadOwn: true},
		{DeleteAll: true},
	}
	if !rs.Grants(PermReadOwn) || !rs.Grants(PermDeleteAll) {
		t.Fatalf("union of rules lost a flag")
	}
	if rs.Grants(PermCreate) {
		t.Fatalf("no rule grants create")
	}
	if RuleSet(nil).GrantsAny(PermReadOwn, PermReadAll) {
		t.Fatalf("empty set must deny")
	}
}

func TestObjectAllowed(t *testing.T) {
	rules := RuleSet{{UpdateOwn: true}}
	if !ObjectAllowed(rules, http.MethodPut, true) {
		t.Fatalf("owner update denied")
	}
	if ObjectAllowed(rules, http.MethodPut, false) {
		t.Fatalf("foreign update allowed with own-only flag")
	}
	if !ObjectAllowed(RuleSet{{UpdateAll: true}}, http.MethodPut, false) {
		t.Fatalf("update_all should allow foreign objects")
	}
	// POST has no object phase.
	if !ObjectAllowed(RuleSet{{Create: true}}, http.MethodPost, false) {
		t.Fatalf("POST must skip ownership checks")
	}
}
