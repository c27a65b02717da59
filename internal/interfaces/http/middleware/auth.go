package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/erp/accounting/internal/infrastructure/auth"
	"github.com/erp/accounting/internal/infrastructure/logger"
	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// TokenVerifier validates an access token, rejecting revoked ones
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer access token and stores its claims
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) || len(header) == len(bearerPrefix) {
			abort(c, dto.ErrCodeUnauthorized, "Missing or malformed bearer token")
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			logger.GetGinLogger(c).Info("Rejected access token", zap.Error(err))
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				abort(c, dto.ErrCodeTokenExpired, "Token has expired")
			case errors.Is(err, auth.ErrTokenRevoked):
				abort(c, dto.ErrCodeTokenInvalid, "Token has been revoked")
			default:
				abort(c, dto.ErrCodeTokenInvalid, "Invalid token")
			}
			return
		}

		c.Set(ClaimsKey, claims)
		ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole allows only tokens carrying one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok || !slices.Contains(roles, claims.Role) {
			abort(c, dto.ErrCodeForbidden, "Insufficient role for this operation")
			return
		}
		c.Next()
	}
}

// ReadOnlyFor rejects state-changing methods for the given roles
func ReadOnlyFor(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if claims, ok := GetClaims(c); ok && slices.Contains(roles, claims.Role) {
			abort(c, dto.ErrCodeForbidden, "Role "+claims.Role+" has read-only access")
			return
		}
		c.Next()
	}
}
