package httpapi

import (
	"net/http"
	"strings"

	"staffdesk.io/internal/audit"
	"staffdesk.io/internal/auth"
)

type assignRoleRequest struct {
	RoleID string `json:"role_id"`
}

type updateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsActive  *bool   `json:"is_active"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.authorize(w, r, "users", auth.ActionRead) {
		return
	}
	if roleName := strings.TrimSpace(r.URL.Query().Get("role")); roleName != "" {
		users, err := a.rbac.GetUsersByRole(r.Context(), roleName)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": users})
		return
	}
	users, err := a.accounts.ListUsers(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users})
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	userID := parts[0]

	switch {
	case len(parts) == 1:
		a.handleUserByID(w, r, userID)
	case len(parts) == 2 && parts[1] == "roles":
		a.handleUserRoles(w, r, userID)
	case len(parts) == 3 && parts[1] == "roles":
		a.handleUserRoleByID(w, r, userID, parts[2])
	case len(parts) == 2 && parts[1] == "permissions":
		a.handleUserPermissions(w, r, userID)
	case len(parts) == 2 && parts[1] == "check-permission":
		a.handleUserCheckPermission(w, r, userID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleUserByID(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		if !a.authorize(w, r, "users", auth.ActionRead) {
			return
		}
		user, err := a.accounts.GetUser(r.Context(), userID)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		if !a.authorize(w, r, "users", auth.ActionUpdate) {
			return
		}
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.accounts.UpdateUser(r.Context(), userID, auth.UserUpdate{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			IsActive:  req.IsActive,
		})
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "auth.user.updated", map[string]any{
			"target_user_id": userID,
		})
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if !a.authorize(w, r, "users", auth.ActionDelete) {
			return
		}
		if err := a.accounts.DeleteUser(r.Context(), userID); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "auth.user.deleted", map[string]any{
			"target_user_id": userID,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleUserRoles(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		if !a.authorize(w, r, "users", auth.ActionRead) {
			return
		}
		roles, err := a.rbac.GetUserRoles(r.Context(), userID)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": roles})
	case http.MethodPost:
		if !a.authorize(w, r, "users", auth.ActionManage) {
			return
		}
		var req assignRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		assignment, err := a.rbac.AssignRoleToUser(r.Context(), userID, req.RoleID)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.user.role_assigned", map[string]any{
			"target_user_id": userID,
			"role_id":        assignment.RoleID,
		})
		writeJSON(w, http.StatusCreated, assignment)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserRoleByID(w http.ResponseWriter, r *http.Request, userID, roleID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if !a.authorize(w, r, "users", auth.ActionManage) {
		return
	}
	if err := a.rbac.RemoveRoleFromUser(r.Context(), userID, roleID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "rbac.user.role_removed", map[string]any{
		"target_user_id": userID,
		"role_id":        roleID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUserPermissions(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.authorize(w, r, "users", auth.ActionRead) {
		return
	}
	perms, err := a.rbac.GetUserPermissions(r.Context(), userID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": perms})
}

// handleUserCheckPermission answers whether a user holds an exact
// (resource, action) permission right now.
func (a *API) handleUserCheckPermission(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.authorize(w, r, "users", auth.ActionRead) {
		return
	}
	resource := strings.TrimSpace(r.URL.Query().Get("resource"))
	action := strings.TrimSpace(r.URL.Query().Get("action"))
	if resource == "" || action == "" {
		writeError(w, r, http.StatusBadRequest, "resource and action parameters are required")
		return
	}
	has, err := a.rbac.UserHasPermission(r.Context(), userID, resource, action)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        userID,
		"resource":       resource,
		"action":         action,
		"has_permission": has,
	})
}
