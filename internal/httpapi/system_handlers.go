package httpapi

import (
	"net/http"
	"strings"

	"staffdesk.io/internal/audit"
	"staffdesk.io/internal/auth"
)

// handleSystem routes the admin maintenance surface under /v1/system/.
func (a *API) handleSystem(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/system/"), "/")
	switch rest {
	case "stats":
		a.handleSystemStats(w, r)
	case "seed":
		a.handleSystemSeed(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (a *API) handleSystemStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.requireAnyRole(w, r, auth.RoleAdmin, auth.RoleHRManager) {
		return
	}

	users, err := a.accounts.ListUsers(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	roles, err := a.rbac.ListRoles(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	perms, err := a.rbac.ListPermissions(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	emps, err := a.emps.List(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	active := 0
	for _, u := range users {
		if u.IsActive {
			active++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users":        len(users),
		"active_users": active,
		"roles":        len(roles),
		"permissions":  len(perms),
		"employees":    len(emps),
	})
}

// handleSystemSeed re-applies the builtin role and permission catalog. The
// seeding is idempotent, so it is safe to run against a live store.
func (a *API) handleSystemSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requireRole(w, r, auth.RoleAdmin) {
		return
	}
	if err := a.rbac.EnsureBuiltins(r.Context()); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "system.builtins.seeded", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "builtins seeded"})
}
