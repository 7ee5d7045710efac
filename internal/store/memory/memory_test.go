package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
	"github.com/DmitriyGrigoriev/rolegate/internal/ids"
)

func TestUserEmailUnique(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	u := &auth.User{ID: ids.New(), Email: "a@example.com", IsActive: true}
	if err := store.Users(ctx).Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := &auth.User{ID: ids.New(), Email: "a@example.com"}
	if err := store.Users(ctx).Create(ctx, dup); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRuleUpsertReplacesFlags(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	first := &auth.AccessRule{ID: ids.New(), RoleID: "r1", ElementID: "e1", ReadAll: true}
	if err := store.Rules(ctx).Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second := &auth.AccessRule{ID: ids.New(), RoleID: "r1", ElementID: "e1", ReadOwn: true}
	if err := store.Rules(ctx).Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	rules, err := store.Rules(ctx).List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("upsert should keep one row per (role, element), got %d", len(rules))
	}
	if rules[0].ReadAll || !rules[0].ReadOwn {
		t.Fatalf("flags were not replaced: %+v", rules[0])
	}
	if rules[0].ID != first.ID {
		t.Fatalf("upsert must keep the original row id")
	}
}

func TestSessionRotateIsSingleUse(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	sess := &auth.Session{
		ID: ids.New(), UserID: "u1",
		TokenHash: "t1", RefreshTokenHash: "r1",
		ExpiresAt:        time.Now().Add(15 * time.Minute),
		RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
		IsActive:         true,
	}
	if err := store.Sessions(ctx).Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	exp := time.Now().Add(15 * time.Minute)
	refreshExp := time.Now().Add(7 * 24 * time.Hour)
	if err := store.Sessions(ctx).Rotate(ctx, sess.ID, "r1", "t2", "r2", exp, refreshExp); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if err := store.Sessions(ctx).Rotate(ctx, sess.ID, "r1", "t3", "r3", exp, refreshExp); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("stale rotation should fail, got %v", err)
	}

	if _, err := store.Sessions(ctx).FindActiveByTokenHash(ctx, "t1"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("old token hash should not resolve, got %v", err)
	}
	if _, err := store.Sessions(ctx).FindActiveByTokenHash(ctx, "t2"); err != nil {
		t.Fatalf("new token hash should resolve: %v", err)
	}
}
