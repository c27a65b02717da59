package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	tenantID := uuid.New()

	t.Run("hashes password and normalises username", func(t *testing.T) {
		user, err := NewUser(tenantID, " Alice ", "s3cret-pass", UserRoleAccountant)

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
		assert.Equal(t, tenantID, user.TenantID)
		assert.True(t, user.Role.CanPost())
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := NewUser(tenantID, "bob", "short", UserRoleViewer)
		assert.Contains(t, err.Error(), "at least 8")
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := NewUser(tenantID, "bob", "long-enough", UserRole("root"))
		assert.Contains(t, err.Error(), "Unknown user role")
	})

	t.Run("rejects nil tenant", func(t *testing.T) {
		_, err := NewUser(uuid.Nil, "bob", "long-enough", UserRoleViewer)
		assert.Error(t, err)
	})
}

func TestUser_Authenticate(t *testing.T) {
	user, err := NewUser(uuid.New(), "carol", "correct-horse", UserRoleViewer)
	require.NoError(t, err)
	now := time.Now()

	assert.True(t, user.Authenticate("correct-horse", now))
	assert.NotNil(t, user.LastLoginAt)
	assert.False(t, user.Role.CanPost())

	for i := 0; i < maxFailedLogins; i++ {
		assert.False(t, user.Authenticate("wrong", now))
	}
	assert.True(t, user.IsLocked(now))
	assert.False(t, user.Authenticate("correct-horse", now), "locked accounts reject valid passwords")

	later := now.Add(lockoutDuration + time.Second)
	assert.False(t, user.IsLocked(later))
	assert.True(t, user.Authenticate("correct-horse", later))
	assert.Equal(t, UserStatusActive, user.Status)
	assert.Zero(t, user.FailedAttempts)
}
