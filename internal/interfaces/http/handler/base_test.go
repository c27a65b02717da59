package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped domain error", fmt.Errorf("load: %w", shared.ErrConcurrencyConflict), http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"business rule", shared.ErrExceedsOutstanding, http.StatusUnprocessableEntity, "EXCEEDS_OUTSTANDING"},
		{"invalid family", shared.NewDomainError("INVALID_AMOUNT", "bad"), http.StatusBadRequest, "INVALID_AMOUNT"},
		{"unknown error is hidden", errors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext("/")
			h.HandleError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w))
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestBaseHandler_Params(t *testing.T) {
	h := &BaseHandler{}
	tenant := uuid.New()
	company := uuid.New()

	t.Run("company scope", func(t *testing.T) {
		c, _ := newContext("/")
		c.Set(middleware.TenantIDKey, tenant.String())
		c.Params = gin.Params{{Key: "company_id", Value: company.String()}}
		gotTenant, gotCompany, ok := h.companyScope(c)
		require.True(t, ok)
		assert.Equal(t, tenant, gotTenant)
		assert.Equal(t, company, gotCompany)
	})

	t.Run("missing tenant", func(t *testing.T) {
		c, w := newContext("/")
		_, ok := h.tenantID(c)
		assert.False(t, ok)
		assert.Equal(t, "TENANT_REQUIRED", decodeError(t, w))
	})

	t.Run("bad resource id", func(t *testing.T) {
		c, w := newContext("/")
		c.Set(middleware.TenantIDKey, tenant.String())
		c.Params = gin.Params{{Key: "company_id", Value: company.String()}, {Key: "id", Value: "42"}}
		_, _, _, ok := h.companyResource(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_ID", decodeError(t, w))
	})

	t.Run("optional query id", func(t *testing.T) {
		c, _ := newContext("/")
		id, ok := h.queryID(c, "order_id")
		assert.True(t, ok)
		assert.Nil(t, id)

		c, _ = newContext("/?order_id=" + company.String())
		id, ok = h.queryID(c, "order_id")
		require.True(t, ok)
		assert.Equal(t, company, *id)

		c, w := newContext("/?order_id=abc")
		_, ok = h.queryID(c, "order_id")
		assert.False(t, ok)
		assert.Equal(t, "INVALID_ID", decodeError(t, w))
	})

	t.Run("query date", func(t *testing.T) {
		c, _ := newContext("/?as_of=2026-03-31")
		d, ok := h.queryDate(c, "as_of")
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), d)

		c, _ = newContext("/")
		d, ok = h.queryDate(c, "as_of")
		assert.True(t, ok)
		assert.True(t, d.IsZero())

		c, w := newContext("/?as_of=31/03/2026")
		_, ok = h.queryDate(c, "as_of")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPage(t *testing.T) {
	p, size := page(0, 0)
	assert.Equal(t, 1, p)
	assert.Equal(t, 20, size)

	p, size = page(3, 50)
	assert.Equal(t, 3, p)
	assert.Equal(t, 50, size)
}

func TestHealthHandler(t *testing.T) {
	decode := func(t *testing.T, w *httptest.ResponseRecorder) HealthResponse {
		t.Helper()
		var body struct {
			Data HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body.Data
	}

	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler("1.2.3", map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		})
		c, w := newContext("/health")
		h.Health(c)
		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "1.2.3", resp.Version)
		assert.Equal(t, "ok", resp.Checks["database"])
	})

	t.Run("degraded", func(t *testing.T) {
		h := NewHealthHandler("1.2.3", map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
		})
		c, w := newContext("/health")
		h.Health(c)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "dial tcp: refused", resp.Checks["redis"])
	})
}
