package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"staffdesk.io/internal/auth"
	"staffdesk.io/internal/ids"
)

const roleColumns = `id, name, description, is_active, created_at, updated_at`
const permissionColumns = `id, name, resource, action, description, is_active, created_at, updated_at`

func scanRole(row interface{ Scan(...any) error }) (auth.Role, error) {
	var role auth.Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive,
		&role.CreatedAt, &role.UpdatedAt)
	return role, err
}

func scanPermission(row interface{ Scan(...any) error }) (auth.Permission, error) {
	var perm auth.Permission
	err := row.Scan(&perm.ID, &perm.Name, &perm.Resource, &perm.Action,
		&perm.Description, &perm.IsActive, &perm.CreatedAt, &perm.UpdatedAt)
	return perm, err
}

func (s *Store) CreateRole(ctx context.Context, name, description string) (auth.Role, error) {
	if s.db == nil {
		return auth.Role{}, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, `
		insert into roles (id, name, description)
		values ($1, $2, $3)
		returning `+roleColumns+`
	`, ids.New(), name, description)
	role, err := scanRole(row)
	if err != nil {
		return auth.Role{}, mapConstraintErr(err)
	}
	return role, nil
}

func (s *Store) RoleByID(ctx context.Context, id string) (auth.Role, error) {
	if s.db == nil {
		return auth.Role{}, errors.New("database connection unavailable")
	}
	role, err := scanRole(s.db.QueryRowContext(ctx, `
		select `+roleColumns+` from roles where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Role{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.Role{}, err
	}
	return role, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]auth.Role, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+roleColumns+` from roles order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateRole(ctx context.Context, id string, upd auth.RoleUpdate) (auth.Role, error) {
	if s.db == nil {
		return auth.Role{}, errors.New("database connection unavailable")
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
	if upd.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", idx))
		args = append(args, *upd.Description)
		idx++
	}
	if upd.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *upd.IsActive)
		idx++
	}
	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = now()")
		args = append(args, id)
		query := fmt.Sprintf(`update roles set %s where id = $%d`, strings.Join(setClauses, ", "), idx)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return auth.Role{}, mapConstraintErr(err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return auth.Role{}, err
		}
		if aff == 0 {
			return auth.Role{}, auth.ErrNotFound
		}
	}
	return s.RoleByID(ctx, id)
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `delete from roles where id = $1`, id)
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

func (s *Store) CreatePermission(ctx context.Context, name, resource, action, description string) (auth.Permission, error) {
	if s.db == nil {
		return auth.Permission{}, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, `
		insert into permissions (id, name, resource, action, description)
		values ($1, $2, $3, $4, $5)
		returning `+permissionColumns+`
	`, ids.New(), name, resource, action, description)
	perm, err := scanPermission(row)
	if err != nil {
		return auth.Permission{}, mapConstraintErr(err)
	}
	return perm, nil
}

func (s *Store) PermissionByID(ctx context.Context, id string) (auth.Permission, error) {
	if s.db == nil {
		return auth.Permission{}, errors.New("database connection unavailable")
	}
	perm, err := scanPermission(s.db.QueryRowContext(ctx, `
		select `+permissionColumns+` from permissions where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Permission{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.Permission{}, err
	}
	return perm, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+permissionColumns+` from permissions order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdatePermission(ctx context.Context, id string, upd auth.PermissionUpdate) (auth.Permission, error) {
	if s.db == nil {
		return auth.Permission{}, errors.New("database connection unavailable")
	}

	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if upd.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", idx))
		args = append(args, *upd.Description)
		idx++
	}
	if upd.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *upd.IsActive)
		idx++
	}
	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = now()")
		args = append(args, id)
		query := fmt.Sprintf(`update permissions set %s where id = $%d`, strings.Join(setClauses, ", "), idx)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return auth.Permission{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return auth.Permission{}, err
		}
		if aff == 0 {
			return auth.Permission{}, auth.ErrNotFound
		}
	}
	return s.PermissionByID(ctx, id)
}

func (s *Store) DeletePermission(ctx context.Context, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `delete from permissions where id = $1`, id)
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

func (s *Store) AddUserRole(ctx context.Context, userID, roleID string) (auth.UserRole, error) {
	if s.db == nil {
		return auth.UserRole{}, errors.New("database connection unavailable")
	}
	var ur auth.UserRole
	row := s.db.QueryRowContext(ctx, `
		insert into user_roles (user_id, role_id)
		values ($1, $2)
		returning user_id, role_id, created_at
	`, userID, roleID)
	if err := row.Scan(&ur.UserID, &ur.RoleID, &ur.CreatedAt); err != nil {
		return auth.UserRole{}, mapConstraintErr(err)
	}
	return ur, nil
}

func (s *Store) RemoveUserRole(ctx context.Context, userID, roleID string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `
		delete from user_roles where user_id = $1 and role_id = $2
	`, userID, roleID)
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

func (s *Store) AddRolePermission(ctx context.Context, roleID, permissionID string) (auth.RolePermission, error) {
	if s.db == nil {
		return auth.RolePermission{}, errors.New("database connection unavailable")
	}
	var rp auth.RolePermission
	row := s.db.QueryRowContext(ctx, `
		insert into role_permissions (role_id, permission_id)
		values ($1, $2)
		returning role_id, permission_id, created_at
	`, roleID, permissionID)
	if err := row.Scan(&rp.RoleID, &rp.PermissionID, &rp.CreatedAt); err != nil {
		return auth.RolePermission{}, mapConstraintErr(err)
	}
	return rp, nil
}

func (s *Store) RemoveRolePermission(ctx context.Context, roleID, permissionID string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `
		delete from role_permissions where role_id = $1 and permission_id = $2
	`, roleID, permissionID)
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

func (s *Store) UserRoles(ctx context.Context, userID string) ([]auth.Role, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.name, r.description, r.is_active, r.created_at, r.updated_at
		from roles r
		join user_roles ur on ur.role_id = r.id
		where ur.user_id = $1 and r.is_active
		order by r.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) RolePermissions(ctx context.Context, roleID string) ([]auth.Permission, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select p.id, p.name, p.resource, p.action, p.description, p.is_active, p.created_at, p.updated_at
		from permissions p
		join role_permissions rp on rp.permission_id = p.id
		where rp.role_id = $1 and p.is_active
		order by p.name
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UserPermissions resolves the effective set live: active permissions
// reachable through active roles, deduplicated by the distinct clause.
func (s *Store) UserPermissions(ctx context.Context, userID string) ([]auth.Permission, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select distinct p.id, p.name, p.resource, p.action, p.description, p.is_active, p.created_at, p.updated_at
		from permissions p
		join role_permissions rp on rp.permission_id = p.id
		join roles r on r.id = rp.role_id
		join user_roles ur on ur.role_id = r.id
		where ur.user_id = $1 and r.is_active and p.is_active
		order by p.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UserHasPermission(ctx context.Context, userID, resource, action string) (bool, error) {
	if s.db == nil {
		return false, errors.New("database connection unavailable")
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		select exists (
			select 1
			from user_roles ur
			join roles r on r.id = ur.role_id and r.is_active
			join role_permissions rp on rp.role_id = r.id
			join permissions p on p.id = rp.permission_id and p.is_active
			where ur.user_id = $1 and p.resource = $2 and p.action = $3
		)
	`, userID, resource, action).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) UserHasRole(ctx context.Context, userID, roleName string) (bool, error) {
	if s.db == nil {
		return false, errors.New("database connection unavailable")
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		select exists (
			select 1
			from user_roles ur
			join roles r on r.id = ur.role_id
			where ur.user_id = $1 and r.name = $2 and r.is_active
		)
	`, userID, roleName).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) UsersByRole(ctx context.Context, roleName string) ([]auth.User, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var roleID string
	err := s.db.QueryRowContext(ctx, `select id from roles where name = $1 and is_active`, roleName).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select u.id, u.email, u.password_hash, u.first_name, u.last_name,
		       u.is_active, u.last_login, u.created_at, u.updated_at
		from users u
		join user_roles ur on ur.user_id = u.id
		where ur.role_id = $1 and u.is_active
		order by u.email
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
