package auth

import "time"

// User is an account that can authenticate and hold roles.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Role groups permissions. Names are uppercase with underscores and unique.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission protects exactly one (resource, action) pair. MANAGE is a
// distinct action, not a superset of the other four.
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserRole links a user to a role; the pair is unique.
type UserRole struct {
	UserID    string    `json:"user_id"`
	RoleID    string    `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RolePermission links a role to a permission; the pair is unique.
type RolePermission struct {
	RoleID       string    `json:"role_id"`
	PermissionID string    `json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// The closed set of permission actions.
const (
	ActionCreate = "CREATE"
	ActionRead   = "READ"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionManage = "MANAGE"
)

var actions = map[string]struct{}{
	ActionCreate: {},
	ActionRead:   {},
	ActionUpdate: {},
	ActionDelete: {},
	ActionManage: {},
}

// ValidAction reports whether action belongs to the closed action set.
func ValidAction(action string) bool {
	_, ok := actions[action]
	return ok
}

// UserUpdate carries partial user changes; nil fields are left untouched.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	IsActive  *bool
}

// RoleUpdate carries partial role changes.
type RoleUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// PermissionUpdate carries partial permission changes. Resource and action
// are immutable once created; only metadata and activation can change.
type PermissionUpdate struct {
	Description *string
	IsActive    *bool
}
