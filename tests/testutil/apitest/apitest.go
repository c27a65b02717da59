// Package apitest runs the full HTTP stack in process over seeded SQLite books
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/accounting/internal/app"
	"github.com/erp/accounting/internal/application/identity"
	"github.com/erp/accounting/internal/application/report"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/erp/accounting/internal/infrastructure/event"
	"github.com/erp/accounting/internal/interfaces/http/router"
	"github.com/erp/accounting/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestJWTConfig is the token configuration used by in-process APIs
func TestJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "accounting-test",
		MaxRefreshCount:        5,
	}
}

// API is the full HTTP stack over seeded SQLite books, with an admin token
type API struct {
	Books    *testutil.Books
	Services *app.Services
	Engine   *gin.Engine
	Events   *testutil.EventRecorder
	Token    string
}

// New builds the router and services the server uses on top of testutil.NewBooks
func New(t *testing.T, companyCodes ...string) *API {
	t.Helper()
	books := testutil.NewBooks(t, companyCodes...)

	bus := event.NewBus(nil)
	services := app.NewServices(app.Deps{
		DB:        books.DB,
		Publisher: bus,
		JWT:       TestJWTConfig(),
		Report:    config.ReportConfig{CacheEnabled: true, CacheTTL: time.Minute},
	})
	recorder := testutil.NewEventRecorder()
	bus.Subscribe(recorder)
	bus.Subscribe(report.NewCacheInvalidator(services.ReportCache, nil))

	engine, err := router.NewEngine(router.EngineOptions{
		HTTP: config.HTTPConfig{MaxBodySize: 1 << 20},
	})
	require.NoError(t, err)
	handlers := services.Handlers("test", nil)
	router.RegisterSystemRoutes(engine, handlers.Health, nil)
	router.NewRouter(engine).Register(router.API(handlers, services.Auth)).Setup()

	a := &API{Books: books, Services: services, Engine: engine, Events: recorder}
	a.Token = a.Login(t, "admin", "admin")
	return a
}

// Login creates a user with role in the seeded tenant and returns an access token
func (a *API) Login(t *testing.T, username, role string) string {
	t.Helper()
	ctx := context.Background()
	const password = "correct-horse-battery"
	_, err := a.Services.Users.Create(ctx, a.Books.TenantID, identity.CreateUserRequest{
		Username: username, Password: password, Role: role,
	})
	require.NoError(t, err)
	resp, err := a.Services.Auth.Token(ctx, identity.TokenRequest{TenantCode: "test", Username: username, Password: password})
	require.NoError(t, err)
	return resp.AccessToken
}

// Do sends an authenticated request as the admin user
func (a *API) Do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.DoWith(t, method, path, body, map[string]string{"Authorization": "Bearer " + a.Token})
}

// DoWith sends a request with explicit headers; no Authorization is added
func (a *API) DoWith(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)
	return w
}

// Envelope is the decoded API response wrapper
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

// Decode asserts the status and decodes the envelope
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder, status int) Envelope[T] {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

// AssertError asserts an error envelope with the given status and code
func AssertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	env := Decode[json.RawMessage](t, w, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, "body: %s", w.Body.String())
	assert.Equal(t, code, env.Error.Code, "message: %s", env.Error.Message)
}

// AssertStatus is a shorthand for requests whose body does not matter
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	assert.Equal(t, status, w.Code, "body: %s", w.Body.String())
}
