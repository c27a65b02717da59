package handler

import (
	"github.com/erp/accounting/internal/application/identity"
	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/erp/accounting/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler issues and revokes API tokens
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	userService *identity.UserService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *identity.AuthService, userService *identity.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// Token handles POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req identity.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.authService.Token(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identity.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Logout handles POST /auth/logout by revoking the presented access token
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		h.ErrorWithCode(c, dto.ErrCodeUnauthorized, "Not authenticated")
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		h.ErrorWithCode(c, dto.ErrCodeUnauthorized, "Not authenticated")
		return
	}
	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeTokenInvalid, "Invalid token")
		return
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeTokenInvalid, "Invalid token")
		return
	}
	user, err := h.authService.CurrentUser(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// CreateUser handles POST /users
func (h *AuthHandler) CreateUser(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req identity.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	user, err := h.userService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// GetUser handles GET /users/:id
func (h *AuthHandler) GetUser(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
