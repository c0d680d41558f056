package auth

import (
	"context"
	"errors"
	"fmt"
)

// Builtin role names.
const (
	RoleAdmin     = "ADMIN"
	RoleHRManager = "HR_MANAGER"
	RoleManager   = "MANAGER"
	RoleEmployee  = "EMPLOYEE"
)

type builtinRole struct {
	name        string
	description string
}

type builtinPermission struct {
	name        string
	resource    string
	action      string
	description string
}

var builtinRoles = []builtinRole{
	{RoleAdmin, "Full access to every resource"},
	{RoleHRManager, "Manages employees and reads personnel reports"},
	{RoleManager, "Reads and updates employees, reads reports"},
	{RoleEmployee, "Reads employee records"},
}

// builtinPermissions is the seed catalog. Each entry is an exact
// (resource, action) pair; MANAGE does not subsume the CRUD actions.
var builtinPermissions = []builtinPermission{
	{"USERS_CREATE", "users", ActionCreate, "Create user accounts"},
	{"USERS_READ", "users", ActionRead, "Read user accounts"},
	{"USERS_UPDATE", "users", ActionUpdate, "Update user accounts"},
	{"USERS_DELETE", "users", ActionDelete, "Delete user accounts"},
	{"USERS_MANAGE", "users", ActionManage, "Manage user role assignments"},

	{"EMPLOYEES_CREATE", "employees", ActionCreate, "Create employee records"},
	{"EMPLOYEES_READ", "employees", ActionRead, "Read employee records"},
	{"EMPLOYEES_UPDATE", "employees", ActionUpdate, "Update employee records"},
	{"EMPLOYEES_DELETE", "employees", ActionDelete, "Delete employee records"},
	{"EMPLOYEES_MANAGE", "employees", ActionManage, "Manage employee data in bulk"},

	{"ROLES_CREATE", "roles", ActionCreate, "Create roles"},
	{"ROLES_READ", "roles", ActionRead, "Read roles"},
	{"ROLES_UPDATE", "roles", ActionUpdate, "Update roles"},
	{"ROLES_DELETE", "roles", ActionDelete, "Delete roles"},
	{"ROLES_MANAGE", "roles", ActionManage, "Manage role permission grants"},

	{"PERMISSIONS_READ", "permissions", ActionRead, "Read the permission catalog"},
	{"PERMISSIONS_MANAGE", "permissions", ActionManage, "Manage the permission catalog"},

	{"REPORTS_READ", "reports", ActionRead, "Read personnel reports"},
	{"REPORTS_MANAGE", "reports", ActionManage, "Manage report definitions"},

	{"SYSTEM_MANAGE", "system", ActionManage, "Administer system settings"},
}

// builtinGrants maps builtin role names to the permission names they hold.
var builtinGrants = map[string][]string{
	RoleAdmin: allBuiltinPermissionNames(),
	RoleHRManager: {
		"EMPLOYEES_CREATE", "EMPLOYEES_READ", "EMPLOYEES_UPDATE",
		"EMPLOYEES_DELETE", "EMPLOYEES_MANAGE",
		"USERS_READ", "REPORTS_READ",
	},
	RoleManager: {
		"EMPLOYEES_READ", "EMPLOYEES_UPDATE", "REPORTS_READ",
	},
	RoleEmployee: {
		"EMPLOYEES_READ",
	},
}

func allBuiltinPermissionNames() []string {
	names := make([]string, 0, len(builtinPermissions))
	for _, p := range builtinPermissions {
		names = append(names, p.name)
	}
	return names
}

// EnsureBuiltins seeds the builtin roles, the permission catalog and the
// default grants. It is idempotent: conflicts from rows that already exist
// are skipped, so calling it on every startup is safe.
func (r *RBACService) EnsureBuiltins(ctx context.Context) error {
	roleIDs := make(map[string]string, len(builtinRoles))
	for _, br := range builtinRoles {
		role, err := r.store.CreateRole(ctx, br.name, br.description)
		if err != nil {
			if !errors.Is(err, ErrConflict) {
				return fmt.Errorf("seed role %s: %w", br.name, err)
			}
			existing, err := r.roleByName(ctx, br.name)
			if err != nil {
				return fmt.Errorf("seed role %s: %w", br.name, err)
			}
			role = existing
		}
		roleIDs[br.name] = role.ID
	}

	permIDs := make(map[string]string, len(builtinPermissions))
	for _, bp := range builtinPermissions {
		perm, err := r.store.CreatePermission(ctx, bp.name, bp.resource, bp.action, bp.description)
		if err != nil {
			if !errors.Is(err, ErrConflict) {
				return fmt.Errorf("seed permission %s: %w", bp.name, err)
			}
			existing, err := r.permissionByName(ctx, bp.name)
			if err != nil {
				return fmt.Errorf("seed permission %s: %w", bp.name, err)
			}
			perm = existing
		}
		permIDs[bp.name] = perm.ID
	}

	for roleName, grants := range builtinGrants {
		roleID := roleIDs[roleName]
		for _, permName := range grants {
			permID, ok := permIDs[permName]
			if !ok {
				return fmt.Errorf("seed grant %s->%s: unknown permission", roleName, permName)
			}
			if _, err := r.store.AddRolePermission(ctx, roleID, permID); err != nil && !errors.Is(err, ErrConflict) {
				return fmt.Errorf("seed grant %s->%s: %w", roleName, permName, err)
			}
		}
	}
	return nil
}

func (r *RBACService) roleByName(ctx context.Context, name string) (Role, error) {
	roles, err := r.store.ListRoles(ctx)
	if err != nil {
		return Role{}, err
	}
	for _, role := range roles {
		if role.Name == name {
			return role, nil
		}
	}
	return Role{}, fmt.Errorf("%w: role %s", ErrNotFound, name)
}

func (r *RBACService) permissionByName(ctx context.Context, name string) (Permission, error) {
	perms, err := r.store.ListPermissions(ctx)
	if err != nil {
		return Permission{}, err
	}
	for _, perm := range perms {
		if perm.Name == name {
			return perm, nil
		}
	}
	return Permission{}, fmt.Errorf("%w: permission %s", ErrNotFound, name)
}
