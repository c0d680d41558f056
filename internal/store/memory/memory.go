// Package memory provides an in-process store used by tests and local
// development. It mirrors the relational semantics of the pg store:
// uniqueness violations surface as ErrConflict from the insert, missing
// foreign keys as ErrNotFound, and deletes cascade over junction rows.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"staffdesk.io/internal/auth"
	"staffdesk.io/internal/employees"
	"staffdesk.io/internal/ids"
)

type userRoleKey struct{ userID, roleID string }
type rolePermKey struct{ roleID, permissionID string }

// Store keeps the whole graph behind a single mutex.
type Store struct {
	mu sync.RWMutex

	users       map[string]*auth.User
	roles       map[string]*auth.Role
	permissions map[string]*auth.Permission
	userRoles   map[userRoleKey]auth.UserRole
	rolePerms   map[rolePermKey]auth.RolePermission
	emps        map[string]*employees.Employee
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]*auth.User),
		roles:       make(map[string]*auth.Role),
		permissions: make(map[string]*auth.Permission),
		userRoles:   make(map[userRoleKey]auth.UserRole),
		rolePerms:   make(map[rolePermKey]auth.RolePermission),
		emps:        make(map[string]*employees.Employee),
	}
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return auth.User{}, auth.ErrConflict
		}
	}
	now := time.Now().UTC()
	user := &auth.User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[user.ID] = user
	return *user, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	return *u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return auth.User{}, auth.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]auth.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd auth.UserUpdate) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	u.UpdatedAt = time.Now().UTC()
	return *u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	at = at.UTC()
	u.LastLogin = &at
	u.UpdatedAt = at
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.users, id)
	for k := range s.userRoles {
		if k.userID == id {
			delete(s.userRoles, k)
		}
	}
	return nil
}

func (s *Store) CreateRole(ctx context.Context, name, description string) (auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == name {
			return auth.Role{}, auth.ErrConflict
		}
	}
	now := time.Now().UTC()
	role := &auth.Role{
		ID:          ids.New(),
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.roles[role.ID] = role
	return *role, nil
}

func (s *Store) RoleByID(ctx context.Context, id string) (auth.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return auth.Role{}, auth.ErrNotFound
	}
	return *r, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]auth.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]auth.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateRole(ctx context.Context, id string, upd auth.RoleUpdate) (auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return auth.Role{}, auth.ErrNotFound
	}
	if upd.Name != nil && *upd.Name != r.Name {
		for _, other := range s.roles {
			if other.Name == *upd.Name {
				return auth.Role{}, auth.ErrConflict
			}
		}
		r.Name = *upd.Name
	}
	if upd.Description != nil {
		r.Description = *upd.Description
	}
	if upd.IsActive != nil {
		r.IsActive = *upd.IsActive
	}
	r.UpdatedAt = time.Now().UTC()
	return *r, nil
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.roles, id)
	for k := range s.userRoles {
		if k.roleID == id {
			delete(s.userRoles, k)
		}
	}
	for k := range s.rolePerms {
		if k.roleID == id {
			delete(s.rolePerms, k)
		}
	}
	return nil
}

func (s *Store) CreatePermission(ctx context.Context, name, resource, action, description string) (auth.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.permissions {
		if p.Name == name {
			return auth.Permission{}, auth.ErrConflict
		}
	}
	now := time.Now().UTC()
	perm := &auth.Permission{
		ID:          ids.New(),
		Name:        name,
		Resource:    resource,
		Action:      action,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.permissions[perm.ID] = perm
	return *perm, nil
}

func (s *Store) PermissionByID(ctx context.Context, id string) (auth.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[id]
	if !ok {
		return auth.Permission{}, auth.ErrNotFound
	}
	return *p, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]auth.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdatePermission(ctx context.Context, id string, upd auth.PermissionUpdate) (auth.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permissions[id]
	if !ok {
		return auth.Permission{}, auth.ErrNotFound
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}

func (s *Store) DeletePermission(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permissions[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.permissions, id)
	for k := range s.rolePerms {
		if k.permissionID == id {
			delete(s.rolePerms, k)
		}
	}
	return nil
}

func (s *Store) AddUserRole(ctx context.Context, userID, roleID string) (auth.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return auth.UserRole{}, auth.ErrNotFound
	}
	if _, ok := s.roles[roleID]; !ok {
		return auth.UserRole{}, auth.ErrNotFound
	}
	key := userRoleKey{userID, roleID}
	if _, ok := s.userRoles[key]; ok {
		return auth.UserRole{}, auth.ErrConflict
	}
	ur := auth.UserRole{UserID: userID, RoleID: roleID, CreatedAt: time.Now().UTC()}
	s.userRoles[key] = ur
	return ur, nil
}

func (s *Store) RemoveUserRole(ctx context.Context, userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userRoleKey{userID, roleID}
	if _, ok := s.userRoles[key]; !ok {
		return auth.ErrNotFound
	}
	delete(s.userRoles, key)
	return nil
}

func (s *Store) AddRolePermission(ctx context.Context, roleID, permissionID string) (auth.RolePermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return auth.RolePermission{}, auth.ErrNotFound
	}
	if _, ok := s.permissions[permissionID]; !ok {
		return auth.RolePermission{}, auth.ErrNotFound
	}
	key := rolePermKey{roleID, permissionID}
	if _, ok := s.rolePerms[key]; ok {
		return auth.RolePermission{}, auth.ErrConflict
	}
	rp := auth.RolePermission{RoleID: roleID, PermissionID: permissionID, CreatedAt: time.Now().UTC()}
	s.rolePerms[key] = rp
	return rp, nil
}

func (s *Store) RemoveRolePermission(ctx context.Context, roleID, permissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rolePermKey{roleID, permissionID}
	if _, ok := s.rolePerms[key]; !ok {
		return auth.ErrNotFound
	}
	delete(s.rolePerms, key)
	return nil
}

// UserRoles returns the active roles held by the user. An unknown user id
// yields an empty set, same as the pg joins.
func (s *Store) UserRoles(ctx context.Context, userID string) ([]auth.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []auth.Role
	for k := range s.userRoles {
		if k.userID != userID {
			continue
		}
		if r, ok := s.roles[k.roleID]; ok && r.IsActive {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RolePermissions returns the active permissions granted to the role.
func (s *Store) RolePermissions(ctx context.Context, roleID string) ([]auth.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []auth.Permission
	for k := range s.rolePerms {
		if k.roleID != roleID {
			continue
		}
		if p, ok := s.permissions[k.permissionID]; ok && p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UserPermissions returns the effective set: permissions reachable through
// active roles, themselves active, deduplicated.
func (s *Store) UserPermissions(ctx context.Context, userID string) ([]auth.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []auth.Permission
	for urk := range s.userRoles {
		if urk.userID != userID {
			continue
		}
		role, ok := s.roles[urk.roleID]
		if !ok || !role.IsActive {
			continue
		}
		for rpk := range s.rolePerms {
			if rpk.roleID != role.ID {
				continue
			}
			perm, ok := s.permissions[rpk.permissionID]
			if !ok || !perm.IsActive || seen[perm.ID] {
				continue
			}
			seen[perm.ID] = true
			out = append(out, *perm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UserHasPermission(ctx context.Context, userID, resource, action string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for urk := range s.userRoles {
		if urk.userID != userID {
			continue
		}
		role, ok := s.roles[urk.roleID]
		if !ok || !role.IsActive {
			continue
		}
		for rpk := range s.rolePerms {
			if rpk.roleID != role.ID {
				continue
			}
			perm, ok := s.permissions[rpk.permissionID]
			if !ok || !perm.IsActive {
				continue
			}
			if perm.Resource == resource && perm.Action == action {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) UserHasRole(ctx context.Context, userID, roleName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for urk := range s.userRoles {
		if urk.userID != userID {
			continue
		}
		role, ok := s.roles[urk.roleID]
		if ok && role.IsActive && role.Name == roleName {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UsersByRole(ctx context.Context, roleName string) ([]auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var roleID string
	for _, r := range s.roles {
		if r.Name == roleName && r.IsActive {
			roleID = r.ID
			break
		}
	}
	if roleID == "" {
		return nil, auth.ErrNotFound
	}
	var out []auth.User
	for k := range s.userRoles {
		if k.roleID != roleID {
			continue
		}
		if u, ok := s.users[k.userID]; ok && u.IsActive {
			out = append(out, *u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) CreateEmployee(ctx context.Context, in employees.EmployeeInput) (employees.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	emp := &employees.Employee{
		ID:              ids.New(),
		Name:            in.Name,
		Position:        in.Position,
		JoinDate:        in.JoinDate,
		ReleaseDate:     in.ReleaseDate,
		ExperienceYears: in.ExperienceYears,
		Salary:          in.Salary,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.emps[emp.ID] = emp
	return *emp, nil
}

func (s *Store) EmployeeByID(ctx context.Context, id string) (employees.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.emps[id]
	if !ok {
		return employees.Employee{}, auth.ErrNotFound
	}
	return *e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]employees.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]employees.Employee, 0, len(s.emps))
	for _, e := range s.emps {
		out = append(out, *e)
	}
	sortEmployees(out)
	return out, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, id string, upd employees.EmployeeUpdate) (employees.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.emps[id]
	if !ok {
		return employees.Employee{}, auth.ErrNotFound
	}
	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.Position != nil {
		e.Position = *upd.Position
	}
	if upd.JoinDate != nil {
		e.JoinDate = *upd.JoinDate
	}
	if upd.ReleaseDate != nil {
		e.ReleaseDate = upd.ReleaseDate
	}
	if upd.ExperienceYears != nil {
		e.ExperienceYears = *upd.ExperienceYears
	}
	if upd.Salary != nil {
		e.Salary = *upd.Salary
	}
	e.UpdatedAt = time.Now().UTC()
	return *e, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emps[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.emps, id)
	return nil
}

func (s *Store) TopByExperience(ctx context.Context, limit int) ([]employees.Employee, error) {
	all, _ := s.ListEmployees(ctx)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ExperienceYears > all[j].ExperienceYears
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) EngineersBelowExperience(ctx context.Context, years int) ([]employees.Employee, error) {
	all, _ := s.ListEmployees(ctx)
	var out []employees.Employee
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Position), "engineer") && e.ExperienceYears < years {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) EmployeesByPosition(ctx context.Context, position string) ([]employees.Employee, error) {
	all, _ := s.ListEmployees(ctx)
	var out []employees.Employee
	for _, e := range all {
		if strings.EqualFold(e.Position, position) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) TotalSalaryByJoinYear(ctx context.Context, year int) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, e := range s.emps {
		if e.JoinDate.UTC().Year() == year {
			total += e.Salary
		}
	}
	return total, nil
}

func sortUsers(out []auth.User) {
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
}

func sortEmployees(out []employees.Employee) {
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
}
