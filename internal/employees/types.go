package employees

import "time"

// Employee is a personnel record. ReleaseDate is nil while the employee is
// still with the company.
type Employee struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Position        string     `json:"position"`
	JoinDate        time.Time  `json:"join_date"`
	ReleaseDate     *time.Time `json:"release_date,omitempty"`
	ExperienceYears int        `json:"experience_years"`
	Salary          float64    `json:"salary"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// EmployeeInput carries the fields needed to create an employee.
type EmployeeInput struct {
	Name            string     `json:"name"`
	Position        string     `json:"position"`
	JoinDate        time.Time  `json:"join_date"`
	ReleaseDate     *time.Time `json:"release_date,omitempty"`
	ExperienceYears int        `json:"experience_years"`
	Salary          float64    `json:"salary"`
}

// EmployeeUpdate is a partial update; nil fields are left unchanged.
type EmployeeUpdate struct {
	Name            *string    `json:"name,omitempty"`
	Position        *string    `json:"position,omitempty"`
	JoinDate        *time.Time `json:"join_date,omitempty"`
	ReleaseDate     *time.Time `json:"release_date,omitempty"`
	ExperienceYears *int       `json:"experience_years,omitempty"`
	Salary          *float64   `json:"salary,omitempty"`
}
