package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"staffdesk.io/internal/audit"
	"staffdesk.io/internal/auth"
	"staffdesk.io/internal/employees"
)

type employeeRequest struct {
	Name            string     `json:"name"`
	Position        string     `json:"position"`
	JoinDate        *time.Time `json:"join_date"`
	ReleaseDate     *time.Time `json:"release_date"`
	ExperienceYears *int       `json:"experience_years"`
	Salary          *float64   `json:"salary"`
}

func (a *API) handleEmployeesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.authorize(w, r, "employees", auth.ActionRead) {
			return
		}
		items, err := a.emps.List(r.Context())
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		if !a.authorize(w, r, "employees", auth.ActionCreate) {
			return
		}
		var req employeeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		in := employees.EmployeeInput{
			Name:        req.Name,
			Position:    req.Position,
			ReleaseDate: req.ReleaseDate,
		}
		if req.JoinDate != nil {
			in.JoinDate = *req.JoinDate
		}
		if req.ExperienceYears != nil {
			in.ExperienceYears = *req.ExperienceYears
		}
		if req.Salary != nil {
			in.Salary = *req.Salary
		}
		emp, err := a.emps.Create(r.Context(), in)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "employees.created", map[string]any{
			"employee_id": emp.ID,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/employees/%s", emp.ID))
		writeJSON(w, http.StatusCreated, emp)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleEmployeeResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/employees/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if strings.HasPrefix(path, "reports/") {
		a.handleEmployeeReports(w, r, strings.TrimPrefix(path, "reports/"))
		return
	}
	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	a.handleEmployeeByID(w, r, path)
}

func (a *API) handleEmployeeByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		if !a.authorize(w, r, "employees", auth.ActionRead) {
			return
		}
		emp, err := a.emps.Get(r.Context(), id)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, emp)
	case http.MethodPut:
		if !a.authorize(w, r, "employees", auth.ActionUpdate) {
			return
		}
		var req employeeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		upd := employees.EmployeeUpdate{
			JoinDate:        req.JoinDate,
			ReleaseDate:     req.ReleaseDate,
			ExperienceYears: req.ExperienceYears,
			Salary:          req.Salary,
		}
		if req.Name != "" {
			upd.Name = &req.Name
		}
		if req.Position != "" {
			upd.Position = &req.Position
		}
		emp, err := a.emps.Update(r.Context(), id, upd)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "employees.updated", map[string]any{
			"employee_id": id,
		})
		writeJSON(w, http.StatusOK, emp)
	case http.MethodDelete:
		if !a.authorize(w, r, "employees", auth.ActionDelete) {
			return
		}
		if err := a.emps.Delete(r.Context(), id); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "employees.deleted", map[string]any{
			"employee_id": id,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// handleEmployeeReports serves the read-only report endpoints under
// /v1/employees/reports/.
func (a *API) handleEmployeeReports(w http.ResponseWriter, r *http.Request, report string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.authorize(w, r, "reports", auth.ActionRead) {
		return
	}

	switch {
	case report == "top-experience":
		limit, err := parseQueryInt(r.URL.Query().Get("limit"), 3)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		items, err := a.emps.TopByExperience(r.Context(), limit)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case report == "engineers/low-experience":
		years, err := parseQueryInt(r.URL.Query().Get("years"), 5)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "years must be a positive integer")
			return
		}
		items, err := a.emps.EngineersBelowExperience(r.Context(), years)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case strings.HasPrefix(report, "position/"):
		position := strings.TrimPrefix(report, "position/")
		items, err := a.emps.ByPosition(r.Context(), position)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case strings.HasPrefix(report, "salary/year/"):
		raw := strings.TrimPrefix(report, "salary/year/")
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "year must be an integer")
			return
		}
		total, err := a.emps.TotalSalaryByJoinYear(r.Context(), year)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"year":         year,
			"total_salary": total,
		})
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func parseQueryInt(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return val, nil
}
