package middleware

import (
	"github.com/erp/accounting/internal/infrastructure/logger"
	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Tenant resolves the tenant of the request. The token claim wins;
// X-Tenant-ID is accepted only when it names the same tenant or no token was presented.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(TenantIDHeader)
		var tenant string
		if claims, ok := GetClaims(c); ok && claims.TenantID != "" {
			tenant = claims.TenantID
			if header != "" && header != tenant {
				abort(c, dto.ErrCodeTenantMismatch, "X-Tenant-ID does not match the token tenant")
				return
			}
		} else {
			tenant = header
		}

		if tenant == "" {
			abort(c, dto.ErrCodeTenantRequired, "Tenant could not be resolved from the token or the X-Tenant-ID header")
			return
		}
		id, err := uuid.Parse(tenant)
		if err != nil {
			abort(c, dto.ErrCodeInvalidID, "Tenant ID must be a UUID")
			return
		}

		c.Set(TenantIDKey, id.String())
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), id.String()))
		c.Next()
	}
}
