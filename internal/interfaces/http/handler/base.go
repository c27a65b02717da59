// Package handler holds the gin handlers of the REST API
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/logger"
	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/erp/accounting/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeBadRequest, message)
}

// BindError answers a failed ShouldBind*
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleBindError(c, err)
}

// HandleError converts service errors to HTTP responses. Domain errors keep their code;
// anything else is logged and hidden behind INTERNAL_ERROR.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, domainErr.Code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	h.ErrorWithCode(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// tenantID returns the tenant resolved by the tenant middleware
func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetTenantID(c)
	if !ok {
		h.ErrorWithCode(c, dto.ErrCodeTenantRequired, "Tenant context is missing")
	}
	return id, ok
}

// pathID parses a UUID path parameter
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidID, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional UUID query parameter
func (h *BaseHandler) queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidID, "Invalid "+name+" format")
		return nil, false
	}
	return &id, true
}

// companyScope resolves the tenant and the :company_id path parameter
func (h *BaseHandler) companyScope(c *gin.Context) (tenantID, companyID uuid.UUID, ok bool) {
	if tenantID, ok = h.tenantID(c); !ok {
		return
	}
	companyID, ok = h.pathID(c, "company_id")
	return
}

// companyResource resolves the tenant, the company and the :id path parameter
func (h *BaseHandler) companyResource(c *gin.Context) (tenantID, companyID, id uuid.UUID, ok bool) {
	if tenantID, companyID, ok = h.companyScope(c); !ok {
		return
	}
	id, ok = h.pathID(c, "id")
	return
}

// page returns the effective page and page size for response meta
func page(requested, requestedSize int) (int, int) {
	def := shared.DefaultFilter()
	if requested <= 0 {
		requested = def.Page
	}
	if requestedSize <= 0 {
		requestedSize = def.PageSize
	}
	return requested, requestedSize
}

// queryDate parses an optional YYYY-MM-DD query parameter; absent yields the zero time
func (h *BaseHandler) queryDate(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeBadRequest, name+" must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return d, true
}
