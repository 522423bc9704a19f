// Copyright 2026 The Lumina Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/catalog"
)

// CreateFilterRuleRequest attaches a filter rule to a role permission link
type CreateFilterRuleRequest struct {
	RolePermissionID string `json:"role_permission_id"`
	FilterType       string `json:"filter_type" example:"OWN"`
}

// StatusRequest activates or deactivates an entity
type StatusRequest struct {
	IsActive *bool `json:"is_active"`
}

// GrantRequest links a permission to a role
type GrantRequest struct {
	RoleID       string `json:"role_id"`
	PermissionID string `json:"permission_id"`
}

// ResourceTreeResponse is the annotated resource tree of a role
type ResourceTreeResponse struct {
	RoleID    string                  `json:"role_id"`
	Resources []*catalog.ResourceNode `json:"resources"`
}

func decodeStatus(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false, false
	}
	if req.IsActive == nil {
		respondError(w, http.StatusBadRequest, "is_active is required")
		return false, false
	}
	return *req.IsActive, true
}

// ListFilterRules lists live filter rules by role or by permission key
// @Summary List filter rules
// @Tags Admin
// @Produce json
// @Param role_id query string false "Role ID"
// @Param permission_key query string false "Permission key"
// @Success 200 {array} authz.RuleView
// @Router /admin/filter-rules [get]
func (h *Handler) ListFilterRules(w http.ResponseWriter, r *http.Request) {
	roleID := r.URL.Query().Get("role_id")
	permissionKey := r.URL.Query().Get("permission_key")

	var (
		rules []*authz.RuleView
		err   error
	)
	switch {
	case roleID != "" && permissionKey != "":
		respondError(w, http.StatusBadRequest, "use either role_id or permission_key")
		return
	case roleID != "":
		rules, err = h.rules.ListRulesByRole(r.Context(), roleID)
	case permissionKey != "":
		rules, err = h.rules.ListRulesByPermissionKey(r.Context(), permissionKey)
	default:
		respondError(w, http.StatusBadRequest, "role_id or permission_key is required")
		return
	}
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if rules == nil {
		rules = []*authz.RuleView{}
	}
	respondJSON(w, http.StatusOK, rules)
}

// CreateFilterRule creates an active filter rule
// @Summary Create filter rule
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body CreateFilterRuleRequest true "Rule"
// @Success 201 {object} authz.FilterRule
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/filter-rules [post]
func (h *Handler) CreateFilterRule(w http.ResponseWriter, r *http.Request) {
	var req CreateFilterRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RolePermissionID == "" {
		respondError(w, http.StatusBadRequest, "role_permission_id is required")
		return
	}

	rule, err := h.rules.CreateRule(r.Context(), req.RolePermissionID, authz.FilterType(req.FilterType), GetUserID(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

// UpdateFilterRuleStatus activates or deactivates a filter rule
func (h *Handler) UpdateFilterRuleStatus(w http.ResponseWriter, r *http.Request) {
	active, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	rule, err := h.rules.UpdateRuleStatus(r.Context(), chi.URLParam(r, "ruleID"), active, GetUserID(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

// DeleteFilterRule soft deletes a filter rule
func (h *Handler) DeleteFilterRule(w http.ResponseWriter, r *http.Request) {
	if err := h.rules.DeleteRule(r.Context(), chi.URLParam(r, "ruleID"), GetUserID(r.Context())); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GrantPermission links a permission to a role, subject to assign rules
// @Summary Grant permission to role
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body GrantRequest true "Grant"
// @Success 201 {object} authz.RolePermission
// @Failure 403 {object} map[string]string
// @Router /admin/role-permissions [post]
func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RoleID == "" || req.PermissionID == "" {
		respondError(w, http.StatusBadRequest, "role_id and permission_id are required")
		return
	}

	rp, err := h.rules.GrantPermission(r.Context(), req.RoleID, req.PermissionID, GetUserID(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rp)
}

// UpdateRolePermissionStatus toggles a grant link
func (h *Handler) UpdateRolePermissionStatus(w http.ResponseWriter, r *http.Request) {
	active, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	rp, err := h.rules.SetRolePermissionStatus(r.Context(), chi.URLParam(r, "rolePermissionID"), active, GetUserID(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rp)
}

// ResourceTree returns the resource hierarchy annotated with the role's grants
// @Summary Role resource tree
// @Tags Admin
// @Produce json
// @Param roleID path string true "Role ID"
// @Param include_inactive query bool false "Include inactive resources and permissions"
// @Success 200 {object} ResourceTreeResponse
// @Router /admin/roles/{roleID}/resource-tree [get]
func (h *Handler) ResourceTree(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))

	assigned, err := h.rules.AssignedPermissionIDs(r.Context(), roleID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	roots, err := h.catalog.ListResourceTree(r.Context(), includeInactive)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	catalog.Annotate(roots, assigned)

	respondJSON(w, http.StatusOK, ResourceTreeResponse{RoleID: roleID, Resources: roots})
}

// ListPermissions returns the permission catalog
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.catalog.ListPermissions(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if perms == nil {
		perms = []*catalog.Permission{}
	}
	respondJSON(w, http.StatusOK, perms)
}

// UpdatePermissionStatus activates or deactivates a permission
func (h *Handler) UpdatePermissionStatus(w http.ResponseWriter, r *http.Request) {
	h.updateCatalogStatus(w, r, chi.URLParam(r, "permissionID"), h.catalog.SetPermissionStatus)
}

// UpdateResourceStatus activates or deactivates a resource
func (h *Handler) UpdateResourceStatus(w http.ResponseWriter, r *http.Request) {
	h.updateCatalogStatus(w, r, chi.URLParam(r, "resourceID"), h.catalog.SetResourceStatus)
}

// UpdateActionStatus activates or deactivates an action
func (h *Handler) UpdateActionStatus(w http.ResponseWriter, r *http.Request) {
	h.updateCatalogStatus(w, r, chi.URLParam(r, "actionID"), h.catalog.SetActionStatus)
}

type statusSetter func(ctx context.Context, id string, isActive bool, actorID string) error

func (h *Handler) updateCatalogStatus(w http.ResponseWriter, r *http.Request, entityID string, set statusSetter) {
	active, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	if err := set(r.Context(), entityID, active, GetUserID(r.Context())); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": entityID, "is_active": active})
}

// ListRestrictedPermissions lists permissions guarded by assign rules
func (h *Handler) ListRestrictedPermissions(w http.ResponseWriter, r *http.Request) {
	restricted, err := h.guard.ListRestrictedPermissions(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if restricted == nil {
		restricted = []authz.RestrictedPermission{}
	}
	respondJSON(w, http.StatusOK, restricted)
}

// CreateAssignRule adds a role to a permission's allow-list
func (h *Handler) CreateAssignRule(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RoleID == "" || req.PermissionID == "" {
		respondError(w, http.StatusBadRequest, "role_id and permission_id are required")
		return
	}

	rule, err := h.guard.AddAssignRule(r.Context(), req.RoleID, req.PermissionID, GetUserID(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

// UpdateAssignRuleStatus activates or deactivates an assign rule
func (h *Handler) UpdateAssignRuleStatus(w http.ResponseWriter, r *http.Request) {
	active, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	ruleID := chi.URLParam(r, "assignRuleID")
	if err := h.guard.SetAssignRuleStatus(r.Context(), ruleID, active, GetUserID(r.Context())); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": ruleID, "is_active": active})
}
