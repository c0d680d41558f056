package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service provides account lifecycle operations: registration, login,
// profile and password management, and user administration.
type Service struct {
	store  Store
	tokens *TokenService
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service over an injected store and token service.
func NewService(store Store, tokens *TokenService, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth store is required")
	}
	if tokens == nil {
		return nil, errors.New("token service is required")
	}
	svc := &Service{store: store, tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Tokens exposes the token service for callers that only need verification.
func (s *Service) Tokens() *TokenService { return s.tokens }

// Register creates a new active user. Duplicate emails surface as
// ErrConflict from the store's uniqueness constraint.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	if len(password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return User{}, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	return s.store.CreateUser(ctx, email, hash, firstName, lastName)
}

// LoginResult carries the outcome of a successful login.
type LoginResult struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password are indistinguishable to the caller; only a deactivated
// account with a correct password is reported as such.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !user.IsActive {
		return LoginResult{}, ErrAccountDeactivated
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	loginAt := s.now().UTC()
	if err := s.store.UpdateLastLogin(ctx, user.ID, loginAt); err != nil {
		return LoginResult{}, err
	}
	user.LastLogin = &loginAt

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a bearer token to a live user. The user row is
// loaded fresh so deactivation closes access before the token expires; a
// missing or disabled subject is reported exactly like a forged token.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return User{}, ErrInvalidToken
	}
	user, err := s.store.UserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidToken
		}
		return User{}, err
	}
	if !user.IsActive {
		return User{}, ErrInvalidToken
	}
	return user, nil
}

// ChangePassword replaces the user's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: new password must be at least 8 characters", ErrInvalidInput)
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(user.PasswordHash, currentPassword); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.store.UserByID(ctx, id)
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// UpdateUser applies a partial update; nil fields are ignored.
func (s *Service) UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if upd.FirstName != nil {
		trimmed := strings.TrimSpace(*upd.FirstName)
		if trimmed == "" {
			return User{}, fmt.Errorf("%w: first name must not be empty", ErrInvalidInput)
		}
		upd.FirstName = &trimmed
	}
	if upd.LastName != nil {
		trimmed := strings.TrimSpace(*upd.LastName)
		if trimmed == "" {
			return User{}, fmt.Errorf("%w: last name must not be empty", ErrInvalidInput)
		}
		upd.LastName = &trimmed
	}
	return s.store.UpdateUser(ctx, id, upd)
}

// DeleteUser removes a user and, through the store, its role assignments.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.store.DeleteUser(ctx, id)
}

// BootstrapAdmin ensures an initial ADMIN account exists. Safe to call on
// every startup: an existing account is left untouched.
func (s *Service) BootstrapAdmin(ctx context.Context, rbac *RBACService, email, password string) error {
	user, err := s.Register(ctx, email, password, "System", "Administrator")
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil
		}
		return err
	}
	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if role.Name != RoleAdmin {
			continue
		}
		if _, err := rbac.AssignRoleToUser(ctx, user.ID, role.ID); err != nil && !errors.Is(err, ErrConflict) {
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: builtin role %s", ErrNotFound, RoleAdmin)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}
