package middleware

import (
	"slices"
	"time"

	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS builds the cross-origin policy from configuration. An empty origin list rejects
// every cross-origin request.
func CORS(cfg config.HTTPConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     cfg.CORSAllowMethods,
		AllowHeaders:     cfg.CORSAllowHeaders,
		ExposeHeaders:    []string{RequestIDHeader, "Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", RequestIDHeader, TenantIDHeader, "Idempotency-Key"}
	}

	switch {
	case slices.Contains(cfg.CORSAllowOrigins, "*"):
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	case len(cfg.CORSAllowOrigins) > 0:
		c.AllowOrigins = cfg.CORSAllowOrigins
	default:
		c.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(c)
}
