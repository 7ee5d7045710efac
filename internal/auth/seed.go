package auth

import (
	"context"
	"errors"
	"time"

	"github.com/DmitriyGrigoriev/rolegate/internal/ids"
)

// SeedAdminEmail is the bootstrap administrator account.
const SeedAdminEmail = "admin@example.com"

type seedRole struct {
	Name        string
	Code        string
	Description string
}

type seedElement struct {
	Name        string
	Code        string
	Description string
}

var seedRoles = []seedRole{
	{Name: "Administrator", Code: "admin", Description: "Full access to every resource"},
	{Name: "Manager", Code: "manager", Description: "Manages business objects"},
	{Name: "User", Code: "user", Description: "Baseline access"},
	{Name: "Guest", Code: "guest", Description: "Read-only access"},
}

var seedElements = []seedElement{
	{Name: "Users", Code: "users", Description: "User accounts"},
	{Name: "Products", Code: "products", Description: "Product catalog"},
	{Name: "Stores", Code: "stores", Description: "Store directory"},
	{Name: "Orders", Code: "orders", Description: "Customer orders"},
	{Name: "Access rules", Code: "access_rules", Description: "Permission management"},
}

type seedGrant struct {
	ReadOwn, ReadAll, Create, UpdateOwn, UpdateAll, DeleteOwn, DeleteAll bool
}

var fullAccess = seedGrant{ReadAll: true, Create: true, UpdateAll: true, DeleteAll: true}

// seedMatrix is the initial access matrix, element code -> grant per role.
var seedMatrix = map[string]map[string]seedGrant{
	"admin": {
		"users":        fullAccess,
		"products":     fullAccess,
		"stores":       fullAccess,
		"orders":       fullAccess,
		"access_rules": fullAccess,
	},
	"manager": {
		"users":        {ReadAll: true},
		"products":     {ReadAll: true, Create: true, UpdateAll: true, DeleteOwn: true},
		"stores":       {ReadAll: true, Create: true, UpdateAll: true, DeleteOwn: true},
		"orders":       {ReadAll: true, Create: true, UpdateAll: true},
		"access_rules": {},
	},
	"user": {
		"users":        {ReadOwn: true},
		"products":     {ReadAll: true, Create: true, UpdateOwn: true, DeleteOwn: true},
		"stores":       {ReadAll: true, Create: true, UpdateOwn: true, DeleteOwn: true},
		"orders":       {ReadOwn: true, Create: true, UpdateOwn: true, DeleteOwn: true},
		"access_rules": {},
	},
	"guest": {
		"users":        {},
		"products":     {ReadAll: true},
		"stores":       {ReadAll: true},
		"orders":       {},
		"access_rules": {},
	},
}

// Seed installs the built-in roles, business elements and access matrix, and
// creates the initial administrator. Idempotent: existing rows are kept,
// rules are upserted to the matrix values.
func Seed(ctx context.Context, store Store, adminPassword string) error {
	now := time.Now().UTC()

	roles := make(map[string]*Role, len(seedRoles))
	for _, sr := range seedRoles {
		role, err := store.Roles(ctx).FindByCode(ctx, sr.Code)
		if errors.Is(err, ErrNotFound) {
			role = &Role{ID: ids.New(), Name: sr.Name, Code: sr.Code, Description: sr.Description, CreatedAt: now}
			if err := store.Roles(ctx).Create(ctx, role); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		roles[sr.Code] = role
	}

	elements := make(map[string]*BusinessElement, len(seedElements))
	for _, se := range seedElements {
		el, err := store.Elements(ctx).FindByCode(ctx, se.Code)
		if errors.Is(err, ErrNotFound) {
			el = &BusinessElement{ID: ids.New(), Name: se.Name, Code: se.Code, Description: se.Description, CreatedAt: now}
			if err := store.Elements(ctx).Create(ctx, el); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		elements[se.Code] = el
	}

	for roleCode, grants := range seedMatrix {
		role := roles[roleCode]
		for elementCode, g := range grants {
			rule := &AccessRule{
				ID:        ids.New(),
				RoleID:    role.ID,
				ElementID: elements[elementCode].ID,
				ReadOwn:   g.ReadOwn,
				ReadAll:   g.ReadAll,
				Create:    g.Create,
				UpdateOwn: g.UpdateOwn,
				UpdateAll: g.UpdateAll,
				DeleteOwn: g.DeleteOwn,
				DeleteAll: g.DeleteAll,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := store.Rules(ctx).Upsert(ctx, rule); err != nil {
				return err
			}
		}
	}

	return seedAdmin(ctx, store, roles["admin"], adminPassword, now)
}

func seedAdmin(ctx context.Context, store Store, adminRole *Role, password string, now time.Time) error {
	_, err := store.Users(ctx).FindByEmail(ctx, SeedAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	admin := &User{
		ID:           ids.New(),
		Email:        SeedAdminEmail,
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Administrator",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Users(ctx).Create(ctx, admin); err != nil {
		return err
	}
	ur := &UserRole{ID: ids.New(), UserID: admin.ID, RoleID: adminRole.ID, AssignedAt: now}
	return store.Roles(ctx).Assign(ctx, ur)
}
