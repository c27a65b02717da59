package identity

import (
	"context"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/auth"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/erp/accounting/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthFixture(t *testing.T) (*testutil.Books, *AuthService, *UserService) {
	t.Helper()
	books := testutil.NewBooks(t)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "accounting-test",
		MaxRefreshCount:        5,
	})
	authSvc := NewAuthService(books.Repos.Tenants(), books.Repos.Users(), jwtService, auth.NewMemoryRevocationList(), zap.NewNop())
	userSvc := NewUserService(books.Repos.Tenants(), books.Repos.Users(), zap.NewNop())
	return books, authSvc, userSvc
}

func TestAuthService_Token(t *testing.T) {
	ctx := context.Background()
	books, authSvc, userSvc := newAuthFixture(t)

	created, err := userSvc.Create(ctx, books.TenantID, CreateUserRequest{Username: "Clerk", Password: "s3cret-pass", Role: "accountant"})
	require.NoError(t, err)
	assert.Equal(t, "clerk", created.Username)

	_, err = userSvc.Create(ctx, books.TenantID, CreateUserRequest{Username: "clerk", Password: "s3cret-pass", Role: "viewer"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	t.Run("issues tokens for valid credentials", func(t *testing.T) {
		resp, err := authSvc.Token(ctx, TokenRequest{TenantCode: "test", Username: "CLERK", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.NotNil(t, resp.User.LastLoginAt)

		claims, err := authSvc.Verify(ctx, resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, books.TenantID.String(), claims.TenantID)
		assert.Equal(t, "accountant", claims.Role)
	})

	t.Run("wrong password and unknown tenant look the same", func(t *testing.T) {
		_, err := authSvc.Token(ctx, TokenRequest{TenantCode: "test", Username: "clerk", Password: "wrong-pass"})
		assert.ErrorIs(t, err, errInvalidCredentials)

		_, err = authSvc.Token(ctx, TokenRequest{TenantCode: "nobody", Username: "clerk", Password: "s3cret-pass"})
		assert.ErrorIs(t, err, errInvalidCredentials)
	})

	t.Run("inactive tenant cannot log in", func(t *testing.T) {
		tenant, err := books.Repos.Tenants().FindByID(ctx, books.TenantID)
		require.NoError(t, err)
		require.NoError(t, tenant.Deactivate())
		require.NoError(t, books.Repos.Tenants().SaveWithLock(ctx, tenant))
		t.Cleanup(func() {
			require.NoError(t, tenant.Activate())
			require.NoError(t, books.Repos.Tenants().SaveWithLock(ctx, tenant))
		})

		_, err = authSvc.Token(ctx, TokenRequest{TenantCode: "test", Username: "clerk", Password: "s3cret-pass"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "TENANT_INACTIVE", de.Code)
	})
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	books, authSvc, userSvc := newAuthFixture(t)
	_, err := userSvc.Create(ctx, books.TenantID, CreateUserRequest{Username: "admin", Password: "admin-pass-1", Role: "admin"})
	require.NoError(t, err)

	first, err := authSvc.Token(ctx, TokenRequest{TenantCode: "TEST", Username: "admin", Password: "admin-pass-1"})
	require.NoError(t, err)

	second, err := authSvc.Refresh(ctx, RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = authSvc.Refresh(ctx, RefreshRequest{RefreshToken: first.RefreshToken})
	require.Error(t, err, "a used refresh token is revoked")

	claims, err := authSvc.Verify(ctx, second.AccessToken)
	require.NoError(t, err)
	require.NoError(t, authSvc.Logout(ctx, claims))

	_, err = authSvc.Verify(ctx, second.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	_, err = authSvc.Refresh(ctx, RefreshRequest{RefreshToken: "garbage"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_TOKEN", de.Code)
}
