// Package httpapi exposes the authentication, administration and demo
// resource endpoints over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
	"github.com/DmitriyGrigoriev/rolegate/internal/obs"
)

// Pinger is implemented by stores that can verify backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the HTTP surface.
type Options struct {
	RateLimitPerSecond int
	RateLimitBurst     int
	MaxBodyBytes       int64
}

func (o *Options) withDefaults() {
	if o.RateLimitPerSecond <= 0 {
		o.RateLimitPerSecond = 50
	}
	if o.RateLimitBurst <= 0 {
		o.RateLimitBurst = 100
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
}

// API wires the auth service, the authorization engine and the demo
// resources into an HTTP handler.
type API struct {
	svc       *auth.Service
	engine    *auth.Engine
	store     auth.Store
	resources *ResourceStore
	opts      Options
}

// New constructs the API.
func New(svc *auth.Service, engine *auth.Engine, store auth.Store, opts Options) *API {
	opts.withDefaults()
	return &API{
		svc:       svc,
		engine:    engine,
		store:     store,
		resources: NewResourceStore(),
		opts:      opts,
	}
}

// Handler returns the fully wired root handler.
func (a *API) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", a.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.handleReadyz).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", a.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", a.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", a.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", a.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", a.handleProfile).Methods(http.MethodGet)
	api.HandleFunc("/auth/me", a.handleUpdateProfile).Methods(http.MethodPatch)
	api.HandleFunc("/auth/me", a.handleDeactivateAccount).Methods(http.MethodDelete)

	api.HandleFunc("/users", a.handleListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", a.handleGetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/roles", a.handleUserRoles).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/roles", a.handleAssignRole).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/roles/{roleID}", a.handleRevokeRole).Methods(http.MethodDelete)

	api.HandleFunc("/roles", a.handleListRoles).Methods(http.MethodGet)
	api.HandleFunc("/roles", a.handleCreateRole).Methods(http.MethodPost)
	api.HandleFunc("/roles/{id}", a.handleGetRole).Methods(http.MethodGet)
	api.HandleFunc("/roles/{id}", a.handleUpdateRole).Methods(http.MethodPut)
	api.HandleFunc("/roles/{id}", a.handleDeleteRole).Methods(http.MethodDelete)

	api.HandleFunc("/elements", a.handleListElements).Methods(http.MethodGet)
	api.HandleFunc("/elements", a.handleCreateElement).Methods(http.MethodPost)
	api.HandleFunc("/elements/{id}", a.handleGetElement).Methods(http.MethodGet)
	api.HandleFunc("/elements/{id}", a.handleUpdateElement).Methods(http.MethodPut)
	api.HandleFunc("/elements/{id}", a.handleDeleteElement).Methods(http.MethodDelete)

	api.HandleFunc("/access-rules", a.handleListRules).Methods(http.MethodGet)
	api.HandleFunc("/access-rules", a.handleUpsertRule).Methods(http.MethodPost)
	api.HandleFunc("/access-rules/{id}", a.handleDeleteRule).Methods(http.MethodDelete)

	a.resources.mount(api, a)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "method not allowed")
	})

	var h http.Handler = r
	h = a.withAuth(h)
	h = RateLimit(h, a.opts.RateLimitBurst, a.opts.RateLimitPerSecond)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = Recoverer(h)
	h = RequestID(h)
	h = obs.Instrument(h)
	return h
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if p, ok := a.store.(Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// authorize runs the view-level decision and records the outcome.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, elementCode string) (*auth.Principal, auth.RuleSet, bool) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		obs.ObserveDecision(elementCode, "unauthorized")
		return nil, nil, false
	}
	rules, err := a.engine.Authorize(r.Context(), principal, elementCode, r.Method)
	if err != nil {
		obs.ObserveDecision(elementCode, "deny")
		writeServiceError(w, r, err)
		return nil, nil, false
	}
	obs.ObserveDecision(elementCode, "allow")
	return principal, rules, true
}
