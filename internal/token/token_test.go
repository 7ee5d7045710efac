package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	codec, err := NewCodec("test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	raw, expiresAt, err := codec.Issue("user-42", KindAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := codec.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Fatalf("unexpected user id: %s", claims.UserID)
	}
	if claims.Kind != KindAccess {
		t.Fatalf("unexpected kind: %s", claims.Kind)
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Now().UTC()
	clock := now
	codec, err := NewCodec("test-secret",
		WithAccessTTL(time.Minute),
		WithClock(func() time.Time { return clock }),
	)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	raw, _, err := codec.Issue("user-42", KindAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock = now.Add(2 * time.Minute)
	if _, err := codec.Verify(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewCodec("secret-a")
	verifier, _ := NewCodec("secret-b")

	raw, _, err := issuer.Issue("user-42", KindRefresh)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	codec, _ := NewCodec("test-secret")
	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("input %q: expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestRefreshTTLIsLonger(t *testing.T) {
	codec, _ := NewCodec("test-secret")

	_, accessExp, err := codec.Issue("user-1", KindAccess)
	if err != nil {
		t.Fatalf("Issue access: %v", err)
	}
	_, refreshExp, err := codec.Issue("user-1", KindRefresh)
	if err != nil {
		t.Fatalf("Issue refresh: %v", err)
	}
	if !refreshExp.After(accessExp) {
		t.Fatalf("refresh expiry %v not after access expiry %v", refreshExp, accessExp)
	}
}

func TestHashIsStableAndHex(t *testing.T) {
	a := Hash("some-token")
	b := Hash("some-token")
	if a != b {
		t.Fatalf("hash not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if strings.ToLower(a) != a {
		t.Fatalf("expected lowercase hex digest: %s", a)
	}
	if Hash("other-token") == a {
		t.Fatalf("different tokens must not collide in tests")
	}
}
