package auth_test

import (
	"context"
	"errors"
	"testing"

	"staffdesk.io/internal/auth"
	"staffdesk.io/internal/store/memory"
)

func newRBAC(t *testing.T) (*auth.RBACService, *memory.Store) {
	t.Helper()
	store := memory.New()
	rbac, err := auth.NewRBACService(store)
	if err != nil {
		t.Fatalf("NewRBACService: %v", err)
	}
	return rbac, store
}

func TestCreateRoleValidation(t *testing.T) {
	ctx := context.Background()
	rbac, _ := newRBAC(t)

	for _, name := range []string{"", "a", "admin", "WITH SPACE", "HYPHEN-ATED"} {
		if _, err := rbac.CreateRole(ctx, name, ""); !errors.Is(err, auth.ErrInvalidInput) {
			t.Fatalf("CreateRole(%q): expected ErrInvalidInput, got %v", name, err)
		}
	}

	role, err := rbac.CreateRole(ctx, "HR_MANAGER", "manages employees")
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if !role.IsActive {
		t.Fatal("new roles must be active")
	}
	if _, err := rbac.CreateRole(ctx, "HR_MANAGER", ""); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("duplicate name: expected ErrConflict, got %v", err)
	}
}

func TestCreatePermissionValidation(t *testing.T) {
	ctx := context.Background()
	rbac, _ := newRBAC(t)

	if _, err := rbac.CreatePermission(ctx, "EMPLOYEES_READ", "employees", "PERUSE", ""); !errors.Is(err, auth.ErrInvalidInput) {
		t.Fatalf("unknown action: expected ErrInvalidInput, got %v", err)
	}
	if _, err := rbac.CreatePermission(ctx, "lowercase", "employees", "READ", ""); !errors.Is(err, auth.ErrInvalidInput) {
		t.Fatalf("bad name: expected ErrInvalidInput, got %v", err)
	}

	perm, err := rbac.CreatePermission(ctx, "EMPLOYEES_READ", "Employees", "read", "read records")
	if err != nil {
		t.Fatalf("CreatePermission: %v", err)
	}
	if perm.Resource != "employees" || perm.Action != "READ" {
		t.Fatalf("expected normalized resource/action, got %q/%q", perm.Resource, perm.Action)
	}
}

func TestAssignAndRemoveRole(t *testing.T) {
	ctx := context.Background()
	rbac, store := newRBAC(t)

	user, _ := store.CreateUser(ctx, "a@b.c", "hash", "Ada", "Lovelace")
	role, err := rbac.CreateRole(ctx, "OPS", "")
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	if _, err := rbac.AssignRoleToUser(ctx, user.ID, role.ID); err != nil {
		t.Fatalf("AssignRoleToUser: %v", err)
	}
	if _, err := rbac.AssignRoleToUser(ctx, user.ID, role.ID); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("second assign: expected ErrConflict, got %v", err)
	}

	if err := rbac.RemoveRoleFromUser(ctx, user.ID, role.ID); err != nil {
		t.Fatalf("RemoveRoleFromUser: %v", err)
	}
	if err := rbac.RemoveRoleFromUser(ctx, user.ID, role.ID); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("second remove: expected ErrNotFound, got %v", err)
	}
}

func TestResolutionAcrossRoles(t *testing.T) {
	ctx := context.Background()
	rbac, store := newRBAC(t)

	user, _ := store.CreateUser(ctx, "a@b.c", "hash", "Ada", "Lovelace")
	ops, _ := rbac.CreateRole(ctx, "OPS", "")
	support, _ := rbac.CreateRole(ctx, "SUPPORT", "")
	read, _ := rbac.CreatePermission(ctx, "EMPLOYEES_READ", "employees", "READ", "")
	update, _ := rbac.CreatePermission(ctx, "EMPLOYEES_UPDATE", "employees", "UPDATE", "")

	rbac.AssignRoleToUser(ctx, user.ID, ops.ID)
	rbac.AssignRoleToUser(ctx, user.ID, support.ID)
	rbac.AssignPermissionToRole(ctx, ops.ID, read.ID)
	rbac.AssignPermissionToRole(ctx, support.ID, read.ID)
	rbac.AssignPermissionToRole(ctx, support.ID, update.ID)

	perms, err := rbac.GetUserPermissions(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserPermissions: %v", err)
	}
	if len(perms) != 2 {
		t.Fatalf("expected union of 2 permissions, got %d", len(perms))
	}

	ok, err := rbac.UserHasPermission(ctx, user.ID, "EMPLOYEES", "update")
	if err != nil || !ok {
		t.Fatalf("expected normalized check to pass, got ok=%v err=%v", ok, err)
	}
	ok, err = rbac.UserHasPermission(ctx, user.ID, "employees", "DELETE")
	if err != nil || ok {
		t.Fatalf("ungranted action must be denied, got ok=%v err=%v", ok, err)
	}
}

func TestListingsExcludeInactive(t *testing.T) {
	ctx := context.Background()
	rbac, store := newRBAC(t)

	user, _ := store.CreateUser(ctx, "a@b.c", "hash", "Ada", "Lovelace")
	role, _ := rbac.CreateRole(ctx, "OPS", "")
	perm, _ := rbac.CreatePermission(ctx, "EMPLOYEES_READ", "employees", "READ", "")
	rbac.AssignRoleToUser(ctx, user.ID, role.ID)
	rbac.AssignPermissionToRole(ctx, role.ID, perm.ID)

	inactive := false
	if _, err := rbac.UpdateRole(ctx, role.ID, auth.RoleUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	roles, err := rbac.GetUserRoles(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserRoles: %v", err)
	}
	if len(roles) != 0 {
		t.Fatalf("deactivated role must not be listed, got %+v", roles)
	}

	active := true
	rbac.UpdateRole(ctx, role.ID, auth.RoleUpdate{IsActive: &active})
	if _, err := rbac.UpdatePermission(ctx, perm.ID, auth.PermissionUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("UpdatePermission: %v", err)
	}
	perms, err := rbac.GetRolePermissions(ctx, role.ID)
	if err != nil {
		t.Fatalf("GetRolePermissions: %v", err)
	}
	if len(perms) != 0 {
		t.Fatalf("deactivated permission must not be listed, got %+v", perms)
	}
}

func TestPermissionNamesMayShareResourceActionPair(t *testing.T) {
	ctx := context.Background()
	rbac, _ := newRBAC(t)

	if _, err := rbac.CreatePermission(ctx, "EMPLOYEES_READ", "employees", "READ", ""); err != nil {
		t.Fatalf("CreatePermission: %v", err)
	}
	// only the name is unique; two permissions may protect the same pair
	if _, err := rbac.CreatePermission(ctx, "DIRECTORY_READ", "employees", "READ", ""); err != nil {
		t.Fatalf("second permission over the same pair: %v", err)
	}
	if _, err := rbac.CreatePermission(ctx, "EMPLOYEES_READ", "reports", "READ", ""); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("duplicate name: expected ErrConflict, got %v", err)
	}
}

func TestUnknownIDsResolveEmpty(t *testing.T) {
	ctx := context.Background()
	rbac, _ := newRBAC(t)

	roles, err := rbac.GetUserRoles(ctx, "no-such-user")
	if err != nil {
		t.Fatalf("GetUserRoles: %v", err)
	}
	if len(roles) != 0 {
		t.Fatalf("expected empty role set, got %+v", roles)
	}

	perms, err := rbac.GetRolePermissions(ctx, "no-such-role")
	if err != nil {
		t.Fatalf("GetRolePermissions: %v", err)
	}
	if len(perms) != 0 {
		t.Fatalf("expected empty permission set, got %+v", perms)
	}

	perms, err = rbac.GetUserPermissions(ctx, "no-such-user")
	if err != nil {
		t.Fatalf("GetUserPermissions: %v", err)
	}
	if len(perms) != 0 {
		t.Fatalf("expected empty effective set, got %+v", perms)
	}
}

func TestEnsureBuiltinsIdempotent(t *testing.T) {
	ctx := context.Background()
	rbac, _ := newRBAC(t)

	for i := 0; i < 2; i++ {
		if err := rbac.EnsureBuiltins(ctx); err != nil {
			t.Fatalf("EnsureBuiltins round %d: %v", i, err)
		}
	}

	roles, err := rbac.ListRoles(ctx)
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(roles) != 4 {
		t.Fatalf("expected 4 builtin roles, got %d", len(roles))
	}

	names := map[string]bool{}
	for _, r := range roles {
		names[r.Name] = true
	}
	for _, want := range []string{auth.RoleAdmin, auth.RoleHRManager, auth.RoleManager, auth.RoleEmployee} {
		if !names[want] {
			t.Fatalf("missing builtin role %s", want)
		}
	}
}

func TestBuiltinGrantsShape(t *testing.T) {
	ctx := context.Background()
	rbac, store := newRBAC(t)
	if err := rbac.EnsureBuiltins(ctx); err != nil {
		t.Fatalf("EnsureBuiltins: %v", err)
	}

	user, _ := store.CreateUser(ctx, "hr@b.c", "hash", "H", "R")
	var hrRoleID string
	roles, _ := rbac.ListRoles(ctx)
	for _, r := range roles {
		if r.Name == auth.RoleHRManager {
			hrRoleID = r.ID
		}
	}
	if _, err := rbac.AssignRoleToUser(ctx, user.ID, hrRoleID); err != nil {
		t.Fatalf("AssignRoleToUser: %v", err)
	}

	checks := []struct {
		resource, action string
		want             bool
	}{
		{"employees", "CREATE", true},
		{"employees", "MANAGE", true},
		{"users", "READ", true},
		{"users", "DELETE", false},
		{"reports", "READ", true},
		{"system", "MANAGE", false},
	}
	for _, c := range checks {
		ok, err := rbac.UserHasPermission(ctx, user.ID, c.resource, c.action)
		if err != nil {
			t.Fatalf("UserHasPermission(%s,%s): %v", c.resource, c.action, err)
		}
		if ok != c.want {
			t.Fatalf("UserHasPermission(%s,%s) = %v, want %v", c.resource, c.action, ok, c.want)
		}
	}
}
