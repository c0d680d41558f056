package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"staffdesk.io/internal/auth"
	"staffdesk.io/internal/employees"
	"staffdesk.io/internal/ids"
)

const employeeColumns = `id, name, position, join_date, release_date, experience_years, salary, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (employees.Employee, error) {
	var (
		emp     employees.Employee
		release sql.NullTime
	)
	err := row.Scan(&emp.ID, &emp.Name, &emp.Position, &emp.JoinDate, &release,
		&emp.ExperienceYears, &emp.Salary, &emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		return employees.Employee{}, err
	}
	if release.Valid {
		t := release.Time
		emp.ReleaseDate = &t
	}
	return emp, nil
}

func (s *Store) CreateEmployee(ctx context.Context, in employees.EmployeeInput) (employees.Employee, error) {
	if s.db == nil {
		return employees.Employee{}, errors.New("database connection unavailable")
	}
	var release any
	if in.ReleaseDate != nil {
		release = in.ReleaseDate.UTC()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into employees (id, name, position, join_date, release_date, experience_years, salary)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning `+employeeColumns+`
	`, ids.New(), in.Name, in.Position, in.JoinDate.UTC(), release, in.ExperienceYears, in.Salary)
	emp, err := scanEmployee(row)
	if err != nil {
		return employees.Employee{}, mapConstraintErr(err)
	}
	return emp, nil
}

func (s *Store) EmployeeByID(ctx context.Context, id string) (employees.Employee, error) {
	if s.db == nil {
		return employees.Employee{}, errors.New("database connection unavailable")
	}
	emp, err := scanEmployee(s.db.QueryRowContext(ctx, `
		select `+employeeColumns+` from employees where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return employees.Employee{}, auth.ErrNotFound
	}
	if err != nil {
		return employees.Employee{}, err
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]employees.Employee, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	return s.queryEmployees(ctx, `
		select `+employeeColumns+` from employees order by name
	`)
}

func (s *Store) UpdateEmployee(ctx context.Context, id string, upd employees.EmployeeUpdate) (employees.Employee, error) {
	if s.db == nil {
		return employees.Employee{}, errors.New("database connection unavailable")
	}

	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if upd.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Position != nil {
		setClauses = append(setClauses, fmt.Sprintf("position = $%d", idx))
		args = append(args, *upd.Position)
		idx++
	}
	if upd.JoinDate != nil {
		setClauses = append(setClauses, fmt.Sprintf("join_date = $%d", idx))
		args = append(args, upd.JoinDate.UTC())
		idx++
	}
	if upd.ReleaseDate != nil {
		setClauses = append(setClauses, fmt.Sprintf("release_date = $%d", idx))
		args = append(args, upd.ReleaseDate.UTC())
		idx++
	}
	if upd.ExperienceYears != nil {
		setClauses = append(setClauses, fmt.Sprintf("experience_years = $%d", idx))
		args = append(args, *upd.ExperienceYears)
		idx++
	}
	if upd.Salary != nil {
		setClauses = append(setClauses, fmt.Sprintf("salary = $%d", idx))
		args = append(args, *upd.Salary)
		idx++
	}
	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = now()")
		args = append(args, id)
		query := fmt.Sprintf(`update employees set %s where id = $%d`, strings.Join(setClauses, ", "), idx)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return employees.Employee{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return employees.Employee{}, err
		}
		if aff == 0 {
			return employees.Employee{}, auth.ErrNotFound
		}
	}
	return s.EmployeeByID(ctx, id)
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `delete from employees where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) TopByExperience(ctx context.Context, limit int) ([]employees.Employee, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	return s.queryEmployees(ctx, `
		select `+employeeColumns+` from employees
		order by experience_years desc, name
		limit $1
	`, limit)
}

func (s *Store) EngineersBelowExperience(ctx context.Context, years int) ([]employees.Employee, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	return s.queryEmployees(ctx, `
		select `+employeeColumns+` from employees
		where position ilike '%engineer%' and experience_years < $1
		order by name
	`, years)
}

func (s *Store) EmployeesByPosition(ctx context.Context, position string) ([]employees.Employee, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	return s.queryEmployees(ctx, `
		select `+employeeColumns+` from employees
		where lower(position) = lower($1)
		order by name
	`, position)
}

func (s *Store) TotalSalaryByJoinYear(ctx context.Context, year int) (float64, error) {
	if s.db == nil {
		return 0, errors.New("database connection unavailable")
	}
	var total float64
	err := s.db.QueryRowContext(ctx, `
		select coalesce(sum(salary), 0) from employees
		where extract(year from join_date) = $1
	`, year).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]employees.Employee, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []employees.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
