package auth

import (
	"context"
	"time"
)

// Store describes the credential persistence contract. Implementations must
// enforce uniqueness at the storage layer: duplicate emails, role names,
// permission names and junction pairs surface as ErrConflict from the insert
// itself, never from a separate existence check. Deleting a user or role
// removes its junction rows in the same transaction.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	DeleteUser(ctx context.Context, id string) error

	CreateRole(ctx context.Context, name, description string) (Role, error)
	RoleByID(ctx context.Context, id string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, id string, upd RoleUpdate) (Role, error)
	DeleteRole(ctx context.Context, id string) error

	CreatePermission(ctx context.Context, name, resource, action, description string) (Permission, error)
	PermissionByID(ctx context.Context, id string) (Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	UpdatePermission(ctx context.Context, id string, upd PermissionUpdate) (Permission, error)
	DeletePermission(ctx context.Context, id string) error

	AddUserRole(ctx context.Context, userID, roleID string) (UserRole, error)
	RemoveUserRole(ctx context.Context, userID, roleID string) error
	AddRolePermission(ctx context.Context, roleID, permissionID string) (RolePermission, error)
	RemoveRolePermission(ctx context.Context, roleID, permissionID string) error

	// Resolution queries. These are live joins over the graph so a revoked
	// role or permission disappears on the very next call.
	UserRoles(ctx context.Context, userID string) ([]Role, error)
	RolePermissions(ctx context.Context, roleID string) ([]Permission, error)
	UserPermissions(ctx context.Context, userID string) ([]Permission, error)
	UserHasPermission(ctx context.Context, userID, resource, action string) (bool, error)
	UserHasRole(ctx context.Context, userID, roleName string) (bool, error)
	UsersByRole(ctx context.Context, roleName string) ([]User, error)
}
