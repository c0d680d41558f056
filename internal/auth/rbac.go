package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Role and permission names are uppercase with underscores, e.g. HR_MANAGER
// or EMPLOYEES_READ.
var namePattern = regexp.MustCompile(`^[A-Z_]+$`)

// RBACService manages the role and permission graph and answers access
// questions. Resolution always goes back to the store so a revocation is
// visible on the next check.
type RBACService struct {
	store Store
}

// NewRBACService constructs an RBACService over an injected store.
func NewRBACService(store Store) (*RBACService, error) {
	if store == nil {
		return nil, errors.New("auth store is required")
	}
	return &RBACService{store: store}, nil
}

// CreateRole creates a role. Duplicate names surface as ErrConflict.
func (r *RBACService) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name, 2, 50); err != nil {
		return Role{}, fmt.Errorf("%w: role name %v", ErrInvalidInput, err)
	}
	return r.store.CreateRole(ctx, name, strings.TrimSpace(description))
}

// GetRole loads a role by id.
func (r *RBACService) GetRole(ctx context.Context, id string) (Role, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Role{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return r.store.RoleByID(ctx, id)
}

// ListRoles returns all roles.
func (r *RBACService) ListRoles(ctx context.Context) ([]Role, error) {
	return r.store.ListRoles(ctx)
}

// UpdateRole applies a partial update; nil fields are ignored.
func (r *RBACService) UpdateRole(ctx context.Context, id string, upd RoleUpdate) (Role, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Role{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if err := validateName(trimmed, 2, 50); err != nil {
			return Role{}, fmt.Errorf("%w: role name %v", ErrInvalidInput, err)
		}
		upd.Name = &trimmed
	}
	return r.store.UpdateRole(ctx, id, upd)
}

// DeleteRole removes a role along with its assignments and grants.
func (r *RBACService) DeleteRole(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return r.store.DeleteRole(ctx, id)
}

// CreatePermission creates a permission for an exact resource and action
// pair. The action must be one of the closed set; MANAGE is its own action
// and implies nothing else.
func (r *RBACService) CreatePermission(ctx context.Context, name, resource, action, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name, 3, 100); err != nil {
		return Permission{}, fmt.Errorf("%w: permission name %v", ErrInvalidInput, err)
	}
	resource = strings.ToLower(strings.TrimSpace(resource))
	if len(resource) < 2 || len(resource) > 50 {
		return Permission{}, fmt.Errorf("%w: resource must be 2-50 characters", ErrInvalidInput)
	}
	action = strings.ToUpper(strings.TrimSpace(action))
	if !ValidAction(action) {
		return Permission{}, fmt.Errorf("%w: action must be one of CREATE, READ, UPDATE, DELETE, MANAGE", ErrInvalidInput)
	}
	return r.store.CreatePermission(ctx, name, resource, action, strings.TrimSpace(description))
}

// GetPermission loads a permission by id.
func (r *RBACService) GetPermission(ctx context.Context, id string) (Permission, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Permission{}, fmt.Errorf("%w: permission_id is required", ErrInvalidInput)
	}
	return r.store.PermissionByID(ctx, id)
}

// ListPermissions returns all permissions.
func (r *RBACService) ListPermissions(ctx context.Context) ([]Permission, error) {
	return r.store.ListPermissions(ctx)
}

// UpdatePermission applies a partial update. Resource and action are
// immutable; only description and active flag can change.
func (r *RBACService) UpdatePermission(ctx context.Context, id string, upd PermissionUpdate) (Permission, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Permission{}, fmt.Errorf("%w: permission_id is required", ErrInvalidInput)
	}
	return r.store.UpdatePermission(ctx, id, upd)
}

// DeletePermission removes a permission along with its grants.
func (r *RBACService) DeletePermission(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: permission_id is required", ErrInvalidInput)
	}
	return r.store.DeletePermission(ctx, id)
}

// AssignRoleToUser grants a role. Assigning twice surfaces as ErrConflict.
func (r *RBACService) AssignRoleToUser(ctx context.Context, userID, roleID string) (UserRole, error) {
	userID, roleID = strings.TrimSpace(userID), strings.TrimSpace(roleID)
	if userID == "" || roleID == "" {
		return UserRole{}, fmt.Errorf("%w: user_id and role_id are required", ErrInvalidInput)
	}
	return r.store.AddUserRole(ctx, userID, roleID)
}

// RemoveRoleFromUser revokes a role. Removing an absent assignment surfaces
// as ErrNotFound.
func (r *RBACService) RemoveRoleFromUser(ctx context.Context, userID, roleID string) error {
	userID, roleID = strings.TrimSpace(userID), strings.TrimSpace(roleID)
	if userID == "" || roleID == "" {
		return fmt.Errorf("%w: user_id and role_id are required", ErrInvalidInput)
	}
	return r.store.RemoveUserRole(ctx, userID, roleID)
}

// AssignPermissionToRole grants a permission to a role.
func (r *RBACService) AssignPermissionToRole(ctx context.Context, roleID, permissionID string) (RolePermission, error) {
	roleID, permissionID = strings.TrimSpace(roleID), strings.TrimSpace(permissionID)
	if roleID == "" || permissionID == "" {
		return RolePermission{}, fmt.Errorf("%w: role_id and permission_id are required", ErrInvalidInput)
	}
	return r.store.AddRolePermission(ctx, roleID, permissionID)
}

// RemovePermissionFromRole revokes a permission from a role.
func (r *RBACService) RemovePermissionFromRole(ctx context.Context, roleID, permissionID string) error {
	roleID, permissionID = strings.TrimSpace(roleID), strings.TrimSpace(permissionID)
	if roleID == "" || permissionID == "" {
		return fmt.Errorf("%w: role_id and permission_id are required", ErrInvalidInput)
	}
	return r.store.RemoveRolePermission(ctx, roleID, permissionID)
}

// GetUserRoles returns the active roles assigned to a user. An unknown
// user id yields an empty set.
func (r *RBACService) GetUserRoles(ctx context.Context, userID string) ([]Role, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return r.store.UserRoles(ctx, userID)
}

// GetRolePermissions returns the active permissions granted to a role.
func (r *RBACService) GetRolePermissions(ctx context.Context, roleID string) ([]Permission, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return r.store.RolePermissions(ctx, roleID)
}

// GetUserPermissions returns the deduplicated union of permissions reachable
// through the user's roles.
func (r *RBACService) GetUserPermissions(ctx context.Context, userID string) ([]Permission, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return r.store.UserPermissions(ctx, userID)
}

// UserHasPermission reports whether the user holds an active permission with
// exactly this resource and action through at least one active role.
func (r *RBACService) UserHasPermission(ctx context.Context, userID, resource, action string) (bool, error) {
	userID = strings.TrimSpace(userID)
	resource = strings.ToLower(strings.TrimSpace(resource))
	action = strings.ToUpper(strings.TrimSpace(action))
	if userID == "" || resource == "" || action == "" {
		return false, fmt.Errorf("%w: user_id, resource and action are required", ErrInvalidInput)
	}
	return r.store.UserHasPermission(ctx, userID, resource, action)
}

// UserHasRole reports whether the user holds an active role with this name.
func (r *RBACService) UserHasRole(ctx context.Context, userID, roleName string) (bool, error) {
	userID = strings.TrimSpace(userID)
	roleName = strings.TrimSpace(roleName)
	if userID == "" || roleName == "" {
		return false, fmt.Errorf("%w: user_id and role name are required", ErrInvalidInput)
	}
	return r.store.UserHasRole(ctx, userID, roleName)
}

// GetUsersByRole returns the active users assigned to the named active role.
func (r *RBACService) GetUsersByRole(ctx context.Context, roleName string) ([]User, error) {
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	return r.store.UsersByRole(ctx, roleName)
}

func validateName(name string, min, max int) error {
	if len(name) < min || len(name) > max {
		return fmt.Errorf("must be %d-%d characters", min, max)
	}
	if !namePattern.MatchString(name) {
		return errors.New("must contain only uppercase letters and underscores")
	}
	return nil
}
