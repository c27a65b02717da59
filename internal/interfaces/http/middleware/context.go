// Package middleware holds the gin middleware stack of the API
package middleware

import (
	"github.com/erp/accounting/internal/infrastructure/auth"
	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gin context keys
const (
	RequestIDKey = "request_id"
	TenantIDKey  = "tenant_id"
	ClaimsKey    = "jwt_claims"

	RequestIDHeader = "X-Request-ID"
	TenantIDHeader  = "X-Tenant-ID"
)

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// GetClaims returns the verified token claims, if the request was authenticated
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// GetTenantID returns the tenant resolved by Tenant
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(TenantIDKey))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func abort(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
