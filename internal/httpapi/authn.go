package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"staffdesk.io/internal/auth"
	"staffdesk.io/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// authenticate is the first gate: no valid bearer token, no request. The
// subject row is re-checked on every call, so a disabled or deleted account
// fails exactly like a forged token.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			obs.CountGateDecision("missing_token")
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, r, http.StatusUnauthorized, "access token required")
			return
		}

		user, err := a.accounts.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				obs.CountGateDecision("invalid_token")
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			obs.CountGateDecision("error")
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		obs.CountGateDecision("authenticated")
		ctx := auth.ContextWithUser(r.Context(), user)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuthenticate attaches the user when a valid token is present and
// lets the request through anonymously otherwise.
func (a *API) optionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.accounts.Authenticate(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := auth.ContextWithUser(r.Context(), user)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorize enforces an exact (resource, action) permission for the
// authenticated user. Resolution is live; a revoked grant denies the very
// next request.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, resource, action string) bool {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		obs.CountGateDecision("missing_token")
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, "access token required")
		return false
	}
	allowed, err := a.rbac.UserHasPermission(r.Context(), user.ID, resource, action)
	if err != nil {
		obs.CountGateDecision("error")
		writeError(w, r, http.StatusInternalServerError, "permission check failed")
		return false
	}
	if !allowed {
		obs.CountGateDecision("forbidden")
		writeError(w, r, http.StatusForbidden, "insufficient permissions")
		return false
	}
	obs.CountGateDecision("authorized")
	return true
}

// requireRole enforces one named active role.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, roleName string) bool {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, "access token required")
		return false
	}
	has, err := a.rbac.UserHasRole(r.Context(), user.ID, roleName)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "permission check failed")
		return false
	}
	if !has {
		obs.CountGateDecision("forbidden")
		writeError(w, r, http.StatusForbidden, fmt.Sprintf("role '%s' required", roleName))
		return false
	}
	return true
}

// requireAnyRole passes when the user holds at least one of the roles.
func (a *API) requireAnyRole(w http.ResponseWriter, r *http.Request, roleNames ...string) bool {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, "access token required")
		return false
	}
	for _, name := range roleNames {
		has, err := a.rbac.UserHasRole(r.Context(), user.ID, name)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "permission check failed")
			return false
		}
		if has {
			return true
		}
	}
	obs.CountGateDecision("forbidden")
	writeError(w, r, http.StatusForbidden,
		fmt.Sprintf("one of these roles required: %s", strings.Join(roleNames, ", ")))
	return false
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
