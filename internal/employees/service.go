package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"staffdesk.io/internal/auth"
)

// Store describes employee persistence. Report queries run against live
// data; implementations do not cache.
type Store interface {
	CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error)
	EmployeeByID(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	UpdateEmployee(ctx context.Context, id string, upd EmployeeUpdate) (Employee, error)
	DeleteEmployee(ctx context.Context, id string) error

	TopByExperience(ctx context.Context, limit int) ([]Employee, error)
	EngineersBelowExperience(ctx context.Context, years int) ([]Employee, error)
	EmployeesByPosition(ctx context.Context, position string) ([]Employee, error)
	TotalSalaryByJoinYear(ctx context.Context, year int) (float64, error)
}

// Service provides employee directory operations and personnel reports.
type Service struct {
	store Store
}

// NewService constructs a Service over an injected store.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("employee store is required")
	}
	return &Service{store: store}, nil
}

// Create validates and persists a new employee record.
func (s *Service) Create(ctx context.Context, in EmployeeInput) (Employee, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Position = strings.TrimSpace(in.Position)
	if err := validateInput(in.Name, in.Position, in.ExperienceYears, in.Salary); err != nil {
		return Employee{}, err
	}
	if in.JoinDate.IsZero() {
		return Employee{}, fmt.Errorf("%w: join_date is required", auth.ErrInvalidInput)
	}
	if in.ReleaseDate != nil && in.ReleaseDate.Before(in.JoinDate) {
		return Employee{}, fmt.Errorf("%w: release_date must not precede join_date", auth.ErrInvalidInput)
	}
	return s.store.CreateEmployee(ctx, in)
}

// Get loads an employee by id.
func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Employee{}, fmt.Errorf("%w: employee_id is required", auth.ErrInvalidInput)
	}
	return s.store.EmployeeByID(ctx, id)
}

// List returns all employees.
func (s *Service) List(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

// Update applies a partial update; nil fields are ignored.
func (s *Service) Update(ctx context.Context, id string, upd EmployeeUpdate) (Employee, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Employee{}, fmt.Errorf("%w: employee_id is required", auth.ErrInvalidInput)
	}
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return Employee{}, fmt.Errorf("%w: name must not be empty", auth.ErrInvalidInput)
		}
		upd.Name = &trimmed
	}
	if upd.Position != nil {
		trimmed := strings.TrimSpace(*upd.Position)
		if trimmed == "" {
			return Employee{}, fmt.Errorf("%w: position must not be empty", auth.ErrInvalidInput)
		}
		upd.Position = &trimmed
	}
	if upd.ExperienceYears != nil && *upd.ExperienceYears < 0 {
		return Employee{}, fmt.Errorf("%w: experience_years must not be negative", auth.ErrInvalidInput)
	}
	if upd.Salary != nil && *upd.Salary < 0 {
		return Employee{}, fmt.Errorf("%w: salary must not be negative", auth.ErrInvalidInput)
	}
	return s.store.UpdateEmployee(ctx, id, upd)
}

// Delete removes an employee record.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: employee_id is required", auth.ErrInvalidInput)
	}
	return s.store.DeleteEmployee(ctx, id)
}

// TopByExperience returns the most experienced employees, longest first.
func (s *Service) TopByExperience(ctx context.Context, limit int) ([]Employee, error) {
	if limit <= 0 {
		limit = 3
	}
	return s.store.TopByExperience(ctx, limit)
}

// EngineersBelowExperience lists engineering positions under the given
// number of experience years.
func (s *Service) EngineersBelowExperience(ctx context.Context, years int) ([]Employee, error) {
	if years <= 0 {
		years = 5
	}
	return s.store.EngineersBelowExperience(ctx, years)
}

// ByPosition lists employees whose position matches, case-insensitively.
func (s *Service) ByPosition(ctx context.Context, position string) ([]Employee, error) {
	position = strings.TrimSpace(position)
	if position == "" {
		return nil, fmt.Errorf("%w: position is required", auth.ErrInvalidInput)
	}
	return s.store.EmployeesByPosition(ctx, position)
}

// TotalSalaryByJoinYear sums the salaries of employees who joined in the
// given calendar year.
func (s *Service) TotalSalaryByJoinYear(ctx context.Context, year int) (float64, error) {
	if year < 1900 || year > 3000 {
		return 0, fmt.Errorf("%w: year is out of range", auth.ErrInvalidInput)
	}
	return s.store.TotalSalaryByJoinYear(ctx, year)
}

func validateInput(name, position string, experienceYears int, salary float64) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", auth.ErrInvalidInput)
	}
	if position == "" {
		return fmt.Errorf("%w: position is required", auth.ErrInvalidInput)
	}
	if experienceYears < 0 {
		return fmt.Errorf("%w: experience_years must not be negative", auth.ErrInvalidInput)
	}
	if salary < 0 {
		return fmt.Errorf("%w: salary must not be negative", auth.ErrInvalidInput)
	}
	return nil
}
