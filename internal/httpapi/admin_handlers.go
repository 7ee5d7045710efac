package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
	"github.com/DmitriyGrigoriev/rolegate/internal/ids"
)

// User administration is guarded by the "users" element, permission
// management by "access_rules". Both are regular business elements, so the
// access matrix governs the admin API the same way it governs demo resources.
const (
	elementUsers = "users"
	elementRules = "access_rules"
)

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	principal, rules, ok := a.authorize(w, r, elementUsers)
	if !ok {
		return
	}
	users, err := a.store.Users(r.Context()).List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// read_own without read_all narrows the listing to the caller.
	if !rules.Grants(auth.PermReadAll) {
		var own []*auth.User
		for _, u := range users {
			if u.ID == principal.User.ID {
				own = append(own, u)
			}
		}
		users = own
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	principal, rules, ok := a.authorize(w, r, elementUsers)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if !auth.ObjectAllowed(rules, r.Method, id == principal.User.ID) {
		writeError(w, r, http.StatusForbidden, "insufficient permissions")
		return
	}
	user, err := a.store.Users(r.Context()).Find(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (a *API) handleUserRoles(w http.ResponseWriter, r *http.Request) {
	principal, rules, ok := a.authorize(w, r, elementUsers)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if !auth.ObjectAllowed(rules, r.Method, id == principal.User.ID) {
		writeError(w, r, http.StatusForbidden, "insufficient permissions")
		return
	}
	roles, err := a.svc.RolesForUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

type assignRoleRequest struct {
	RoleID string `json:"role_id"`
}

func (a *API) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RoleID) == "" {
		writeError(w, r, http.StatusBadRequest, "role_id is required")
		return
	}
	assignment, err := a.svc.AssignRole(r.Context(), mux.Vars(r)["id"], req.RoleID, principal.User.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"assignment": assignment})
}

func (a *API) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	vars := mux.Vars(r)
	if err := a.svc.RevokeRole(r.Context(), vars["id"], vars["roleID"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

type roleRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	roles, err := a.store.Roles(r.Context()).List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (a *API) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Code) == "" {
		writeError(w, r, http.StatusBadRequest, "name and code are required")
		return
	}
	role := &auth.Role{
		ID:          ids.New(),
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.Roles(r.Context()).Create(r.Context(), role); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"role": role})
}

func (a *API) handleGetRole(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	role, err := a.store.Roles(r.Context()).Find(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"role": role})
}

func (a *API) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	role, err := a.store.Roles(r.Context()).Find(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != "" {
		role.Name = strings.TrimSpace(req.Name)
	}
	if req.Code != "" {
		role.Code = strings.TrimSpace(req.Code)
	}
	role.Description = strings.TrimSpace(req.Description)
	if err := a.store.Roles(r.Context()).Update(r.Context(), role); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"role": role})
}

func (a *API) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	if err := a.store.Roles(r.Context()).Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type elementRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (a *API) handleListElements(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	elements, err := a.store.Elements(r.Context()).List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"elements": elements})
}

func (a *API) handleCreateElement(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	var req elementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Code) == "" {
		writeError(w, r, http.StatusBadRequest, "name and code are required")
		return
	}
	el := &auth.BusinessElement{
		ID:          ids.New(),
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.Elements(r.Context()).Create(r.Context(), el); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"element": el})
}

func (a *API) handleGetElement(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	el, err := a.store.Elements(r.Context()).Find(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"element": el})
}

func (a *API) handleUpdateElement(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	el, err := a.store.Elements(r.Context()).Find(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req elementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != "" {
		el.Name = strings.TrimSpace(req.Name)
	}
	if req.Code != "" {
		el.Code = strings.TrimSpace(req.Code)
	}
	el.Description = strings.TrimSpace(req.Description)
	if err := a.store.Elements(r.Context()).Update(r.Context(), el); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"element": el})
}

func (a *API) handleDeleteElement(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	if err := a.store.Elements(r.Context()).Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type ruleRequest struct {
	RoleID    string `json:"role_id"`
	ElementID string `json:"element_id"`
	ReadOwn   bool   `json:"read_own"`
	ReadAll   bool   `json:"read_all"`
	Create    bool   `json:"create"`
	UpdateOwn bool   `json:"update_own"`
	UpdateAll bool   `json:"update_all"`
	DeleteOwn bool   `json:"delete_own"`
	DeleteAll bool   `json:"delete_all"`
}

func (a *API) handleListRules(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	rules, err := a.store.Rules(r.Context()).List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_rules": rules})
}

func (a *API) handleUpsertRule(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	var req ruleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RoleID == "" || req.ElementID == "" {
		writeError(w, r, http.StatusBadRequest, "role_id and element_id are required")
		return
	}
	if _, err := a.store.Roles(r.Context()).Find(r.Context(), req.RoleID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if _, err := a.store.Elements(r.Context()).Find(r.Context(), req.ElementID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	now := time.Now().UTC()
	rule := &auth.AccessRule{
		ID:        ids.New(),
		RoleID:    req.RoleID,
		ElementID: req.ElementID,
		ReadOwn:   req.ReadOwn,
		ReadAll:   req.ReadAll,
		Create:    req.Create,
		UpdateOwn: req.UpdateOwn,
		UpdateAll: req.UpdateAll,
		DeleteOwn: req.DeleteOwn,
		DeleteAll: req.DeleteAll,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.Rules(r.Context()).Upsert(r.Context(), rule); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"access_rule": rule})
}

func (a *API) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := a.authorize(w, r, elementRules); !ok {
		return
	}
	if err := a.store.Rules(r.Context()).Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
