package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"staffdesk.io/internal/auth"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func userRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name",
		"is_active", "last_login", "created_at", "updated_at",
	}).AddRow("u-1", "a@b.c", "hash", "Ada", "Lovelace", true, nil, now, now)
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into users").
		WithArgs(sqlmock.AnyArg(), "a@b.c", "hash", "Ada", "Lovelace").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	_, err := store.CreateUser(context.Background(), "a@b.c", "hash", "Ada", "Lovelace")
	if !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserReturnsRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into users").
		WithArgs(sqlmock.AnyArg(), "a@b.c", "hash", "Ada", "Lovelace").
		WillReturnRows(userRows())

	user, err := store.CreateUser(context.Background(), "a@b.c", "hash", "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Email != "a@b.c" || !user.IsActive {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.LastLogin != nil {
		t.Fatal("expected nil last_login for fresh user")
	}
}

func TestUserByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select .* from users where id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "first_name", "last_name",
			"is_active", "last_login", "created_at", "updated_at",
		}))

	_, err := store.UserByID(context.Background(), "missing")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddUserRoleMapsForeignKeyViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into user_roles").
		WithArgs("u-1", "missing-role").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	_, err := store.AddUserRole(context.Background(), "u-1", "missing-role")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddUserRoleMapsDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into user_roles").
		WithArgs("u-1", "r-1").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	_, err := store.AddUserRole(context.Background(), "u-1", "r-1")
	if !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRemoveUserRoleNotAssigned(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from user_roles").
		WithArgs("u-1", "r-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.RemoveUserRole(context.Background(), "u-1", "r-1"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRoleNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from roles").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteRole(context.Background(), "missing"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRolesSelectsActiveOnly(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`join user_roles ur on ur.role_id = r.id where ur.user_id = \$1 and r.is_active`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "is_active", "created_at", "updated_at",
		}).AddRow("r-1", "OPS", "", true, now, now))

	roles, err := store.UserRoles(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("UserRoles: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "OPS" {
		t.Fatalf("unexpected roles: %+v", roles)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRolePermissionsSelectsActiveOnly(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`join role_permissions rp on rp.permission_id = p.id where rp.role_id = \$1 and p.is_active`).
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "resource", "action", "description", "is_active", "created_at", "updated_at",
		}).AddRow("p-1", "EMPLOYEES_READ", "employees", "READ", "", true, now, now))

	perms, err := store.RolePermissions(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("RolePermissions: %v", err)
	}
	if len(perms) != 1 || perms[0].Name != "EMPLOYEES_READ" {
		t.Fatalf("unexpected permissions: %+v", perms)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRolesUnknownUserIsEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("join user_roles ur").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "is_active", "created_at", "updated_at",
		}))

	roles, err := store.UserRoles(context.Background(), "missing")
	if err != nil {
		t.Fatalf("UserRoles: %v", err)
	}
	if len(roles) != 0 {
		t.Fatalf("expected empty role set, got %+v", roles)
	}
}

func TestUserHasPermissionQueriesExistence(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select exists").
		WithArgs("u-1", "employees", "READ").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.UserHasPermission(context.Background(), "u-1", "employees", "READ")
	if err != nil {
		t.Fatalf("UserHasPermission: %v", err)
	}
	if !ok {
		t.Fatal("expected grant")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTotalSalaryByJoinYear(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select coalesce").
		WithArgs(2023).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(230000.0))

	total, err := store.TotalSalaryByJoinYear(context.Background(), 2023)
	if err != nil {
		t.Fatalf("TotalSalaryByJoinYear: %v", err)
	}
	if total != 230000 {
		t.Fatalf("total = %v, want 230000", total)
	}
}
