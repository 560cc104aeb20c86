package users

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hgcsasdas/FFHS/internal/core"
)

// Roles assignable to accounts. Admins can manage buckets and other users.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

var (
	// ErrUserNotFound means no account matches the given id or username.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken means an account with the username already exists.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrBadCredentials means the username/password pair did not match.
	// Deliberately the same error for unknown user and wrong password.
	ErrBadCredentials = errors.New("invalid username or password")

	// ErrLastAdmin means the account is the only enabled admin and
	// cannot be deleted.
	ErrLastAdmin = errors.New("cannot delete the last admin user")
)

// User is an administrative account. Buckets authenticate with API keys;
// users exist only for the management surface (bucket and user CRUD).
type User struct {
	ID           string // UUID
	Username     string
	PasswordHash string // bcrypt
	Role         string
	Enabled      bool
	CreatedAt    time.Time
}

// Store provides an interface for user row storage.
// Find methods return (nil, nil) when no row matches.
type Store interface {
	FindUserByID(id string) (*User, error)
	FindUserByUsername(username string) (*User, error)
	CreateUser(u *User) error
	ListUsers() ([]*User, error)
	DeleteUser(id string) error
}

// Service implements account management and credential verification.
type Service struct {
	store  Store
	logger core.Logger
	clock  core.Clock
	idgen  core.IDGenerator
}

// NewService creates a Service with the provided dependencies.
func NewService(store Store, logger core.Logger, clock core.Clock, idgen core.IDGenerator) *Service {
	return &Service{store: store, logger: logger, clock: clock, idgen: idgen}
}

// Create registers a new account with a bcrypt-hashed password.
func (s *Service) Create(username, password, role string) (*User, error) {
	existing, err := s.store.FindUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("checking for existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		ID:           s.idgen.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Enabled:      true,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, core.ErrUniqueViolation) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created", "username", username, "role", role)
	return user, nil
}

// EnsureDefaultAdmin seeds the default admin account if it does not exist.
// Idempotent: safe to run on every startup.
func (s *Service) EnsureDefaultAdmin(username, password string) error {
	existing, err := s.store.FindUserByUsername(username)
	if err != nil {
		return fmt.Errorf("checking for default admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	if _, err := s.Create(username, password, RoleAdmin); err != nil {
		return fmt.Errorf("creating default admin: %w", err)
	}
	return nil
}

// Authenticate verifies a username/password pair and returns the account.
func (s *Service) Authenticate(username, password string) (*User, error) {
	user, err := s.store.FindUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil || !user.Enabled {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// Get returns the account with the given id.
func (s *Service) Get(id string) (*User, error) {
	user, err := s.store.FindUserByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List returns all accounts.
func (s *Service) List() ([]*User, error) {
	list, err := s.store.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return list, nil
}

// Delete removes an account. The last admin cannot be deleted.
func (s *Service) Delete(id string) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}

	if user.Role == RoleAdmin {
		all, err := s.store.ListUsers()
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}
		admins := 0
		for _, u := range all {
			if u.Role == RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.store.DeleteUser(id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	s.logger.Info("user deleted", "username", user.Username)
	return nil
}
