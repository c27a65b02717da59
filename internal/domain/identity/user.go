package identity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRole controls what an API user may do inside its tenant
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleAccountant UserRole = "accountant"
	UserRoleViewer     UserRole = "viewer"
)

// IsValid reports whether the role is known
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleAdmin, UserRoleAccountant, UserRoleViewer:
		return true
	}
	return false
}

// CanPost reports whether the role may create ledger-affecting documents
func (r UserRole) CanPost() bool {
	return r == UserRoleAdmin || r == UserRoleAccountant
}

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusLocked UserStatus = "locked"
)

const (
	bcryptCost          = 12
	maxFailedLogins     = 5
	lockoutDuration     = 15 * time.Minute
	minPasswordLength   = 8
	maxPasswordByteSize = 72
)

// User is an API user belonging to one tenant
type User struct {
	shared.TenantAggregateRoot
	Username       string
	PasswordHash   string
	DisplayName    string
	Role           UserRole
	Status         UserStatus
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
}

// NewUser creates a user with a bcrypt password hash
func NewUser(tenantID uuid.UUID, username, password string, role UserRole) (*User, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown user role")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	return &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Username:            strings.ToLower(strings.TrimSpace(username)),
		PasswordHash:        hash,
		DisplayName:         username,
		Role:                role,
		Status:              UserStatusActive,
	}, nil
}

// Authenticate checks the password and records the attempt.
// It returns false for a wrong password or a locked account.
func (u *User) Authenticate(password string, now time.Time) bool {
	if u.IsLocked(now) {
		return false
	}
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
		u.LockedUntil = nil
		u.FailedAttempts = 0
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		u.FailedAttempts++
		if u.FailedAttempts >= maxFailedLogins {
			until := now.Add(lockoutDuration)
			u.Status = UserStatusLocked
			u.LockedUntil = &until
		}
		u.Touch()
		return false
	}

	u.FailedAttempts = 0
	u.LastLoginAt = &now
	u.Touch()
	return true
}

// IsLocked reports whether the account is currently locked out
func (u *User) IsLocked(now time.Time) bool {
	return u.Status == UserStatusLocked && u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// ChangePassword replaces the password hash
func (u *User) ChangePassword(password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.Touch()
	u.IncrementVersion()
	return nil
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if utf8.RuneCountInString(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > maxPasswordByteSize {
		return "", shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return string(hash), nil
}
