package httpapi

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
	"github.com/DmitriyGrigoriev/rolegate/internal/ids"
)

// Resource is a demo business object (product, store, order) used to
// exercise the access matrix end to end.
type Resource struct {
	ID          string    `json:"id"`
	Element     string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// resourceView decorates a resource with the caller's ownership flag.
type resourceView struct {
	Resource
	IsMine bool `json:"is_mine"`
}

// ResourceStore holds demo objects in process memory, keyed by element code.
type ResourceStore struct {
	mu    sync.Mutex
	items map[string]map[string]*Resource
}

// NewResourceStore creates an empty store.
func NewResourceStore() *ResourceStore {
	return &ResourceStore{items: map[string]map[string]*Resource{}}
}

func (rs *ResourceStore) list(element string) []*Resource {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	var out []*Resource
	for _, item := range rs.items[element] {
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (rs *ResourceStore) get(element, id string) (*Resource, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	item, ok := rs.items[element][id]
	if !ok {
		return nil, false
	}
	cp := *item
	return &cp, true
}

func (rs *ResourceStore) put(item *Resource) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	bucket, ok := rs.items[item.Element]
	if !ok {
		bucket = map[string]*Resource{}
		rs.items[item.Element] = bucket
	}
	cp := *item
	bucket[item.ID] = &cp
}

func (rs *ResourceStore) delete(element, id string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.items[element], id)
}

var resourceElements = []struct {
	Path    string
	Element string
}{
	{Path: "products", Element: "products"},
	{Path: "stores", Element: "stores"},
	{Path: "orders", Element: "orders"},
}

// mount registers CRUD routes for every demo element.
func (rs *ResourceStore) mount(r *mux.Router, a *API) {
	for _, re := range resourceElements {
		element := re.Element
		r.HandleFunc("/"+re.Path, a.handleListResources(element)).Methods(http.MethodGet)
		r.HandleFunc("/"+re.Path, a.handleCreateResource(element)).Methods(http.MethodPost)
		r.HandleFunc("/"+re.Path+"/{id}", a.handleGetResource(element)).Methods(http.MethodGet)
		r.HandleFunc("/"+re.Path+"/{id}", a.handleUpdateResource(element)).Methods(http.MethodPut, http.MethodPatch)
		r.HandleFunc("/"+re.Path+"/{id}", a.handleDeleteResource(element)).Methods(http.MethodDelete)
	}
}

// handleListResources lists objects the caller may see: everything with
// read_all, only owned objects with read_own.
func (a *API) handleListResources(element string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, rules, ok := a.authorize(w, r, element)
		if !ok {
			return
		}
		all := a.resources.list(element)
		readAll := rules.Grants(auth.PermReadAll)
		views := make([]resourceView, 0, len(all))
		for _, item := range all {
			mine := item.OwnerID == principal.User.ID
			if !readAll && !mine {
				continue
			}
			views = append(views, resourceView{Resource: *item, IsMine: mine})
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": views})
	}
}

type resourceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *API) handleCreateResource(element string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _, ok := a.authorize(w, r, element)
		if !ok {
			return
		}
		var req resourceRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, r, http.StatusBadRequest, "name is required")
			return
		}
		now := time.Now().UTC()
		item := &Resource{
			ID:          ids.New(),
			Element:     element,
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
			OwnerID:     principal.User.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		a.resources.put(item)
		writeJSON(w, http.StatusCreated, map[string]any{"item": resourceView{Resource: *item, IsMine: true}})
	}
}

func (a *API) handleGetResource(element string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, rules, ok := a.authorize(w, r, element)
		if !ok {
			return
		}
		item, found := a.resources.get(element, mux.Vars(r)["id"])
		if !found {
			writeError(w, r, http.StatusNotFound, "not found")
			return
		}
		mine := item.OwnerID == principal.User.ID
		if !auth.ObjectAllowed(rules, r.Method, mine) {
			writeError(w, r, http.StatusForbidden, "insufficient permissions")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": resourceView{Resource: *item, IsMine: mine}})
	}
}

func (a *API) handleUpdateResource(element string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, rules, ok := a.authorize(w, r, element)
		if !ok {
			return
		}
		item, found := a.resources.get(element, mux.Vars(r)["id"])
		if !found {
			writeError(w, r, http.StatusNotFound, "not found")
			return
		}
		mine := item.OwnerID == principal.User.ID
		if !auth.ObjectAllowed(rules, r.Method, mine) {
			writeError(w, r, http.StatusForbidden, "insufficient permissions")
			return
		}
		var req resourceRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Name) != "" {
			item.Name = strings.TrimSpace(req.Name)
		}
		item.Description = strings.TrimSpace(req.Description)
		item.UpdatedAt = time.Now().UTC()
		a.resources.put(item)
		writeJSON(w, http.StatusOK, map[string]any{"item": resourceView{Resource: *item, IsMine: mine}})
	}
}

func (a *API) handleDeleteResource(element string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, rules, ok := a.authorize(w, r, element)
		if !ok {
			return
		}
		item, found := a.resources.get(element, mux.Vars(r)["id"])
		if !found {
			writeError(w, r, http.StatusNotFound, "not found")
			return
		}
		mine := item.OwnerID == principal.User.ID
		if !auth.ObjectAllowed(rules, r.Method, mine) {
			writeError(w, r, http.StatusForbidden, "insufficient permissions")
			return
		}
		a.resources.delete(element, item.ID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
