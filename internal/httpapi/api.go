// Package httpapi is the HTTP surface. Every protected route passes through
// the same chain: request id, logging, hardening headers, body and rate
// limits, then per-route authentication and permission checks.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"staffdesk.io/internal/auth"
	"staffdesk.io/internal/employees"
	"staffdesk.io/internal/obs"
)

// ReadyProbe reports storage readiness, usually a database ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options tunes the outer middleware chain.
type Options struct {
	Version      string
	MaxBodyBytes int64
	RateBurst    int
	RatePerSec   int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	accounts   *auth.Service
	rbac       *auth.RBACService
	emps       *employees.Service
	readyProbe ReadyProbe
	opts       Options
}

func New(accounts *auth.Service, rbac *auth.RBACService, emps *employees.Service, rp ReadyProbe, opts Options) *API {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 50
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 25
	}
	a := &API{
		mux:        http.NewServeMux(),
		accounts:   accounts,
		rbac:       rbac,
		emps:       emps,
		readyProbe: rp,
		opts:       opts,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/v1/info", a.optionalAuthenticate(http.HandlerFunc(a.Info)))

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// public entry points
	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)

	// authenticated self-service
	a.mux.Handle("/v1/auth/profile", a.authenticate(http.HandlerFunc(a.handleProfile)))
	a.mux.Handle("/v1/auth/change-password", a.authenticate(http.HandlerFunc(a.handleChangePassword)))

	// administration
	a.mux.Handle("/v1/users", a.authenticate(http.HandlerFunc(a.handleUsersCollection)))
	a.mux.Handle("/v1/users/", a.authenticate(http.HandlerFunc(a.handleUserResource)))
	a.mux.Handle("/v1/roles", a.authenticate(http.HandlerFunc(a.handleRolesCollection)))
	a.mux.Handle("/v1/roles/", a.authenticate(http.HandlerFunc(a.handleRoleResource)))
	a.mux.Handle("/v1/permissions", a.authenticate(http.HandlerFunc(a.handlePermissionsCollection)))
	a.mux.Handle("/v1/permissions/", a.authenticate(http.HandlerFunc(a.handlePermissionResource)))

	// employee directory and reports
	a.mux.Handle("/v1/employees", a.authenticate(http.HandlerFunc(a.handleEmployeesCollection)))
	a.mux.Handle("/v1/employees/", a.authenticate(http.HandlerFunc(a.handleEmployeeResource)))

	// admin maintenance
	a.mux.Handle("/v1/system/", a.authenticate(http.HandlerFunc(a.handleSystem)))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSec)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "staffdesk-api",
		"version": a.opts.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"name":    "staffdesk-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.opts.Version,
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		payload["user"] = user.Email
	}
	writeJSON(w, http.StatusOK, payload)
}
