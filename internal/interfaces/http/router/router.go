// Package router assembles the gin engine: the middleware stack and every API route
package router

import (
	"net/http"

	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/erp/accounting/internal/infrastructure/logger"
	"github.com/erp/accounting/internal/infrastructure/telemetry"
	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/erp/accounting/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RegistrarFunc adapts a function to RouteRegistrar
type RegistrarFunc func(rg *gin.RouterGroup)

// RegisterRoutes calls f
func (f RegistrarFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineOptions configures the shared middleware stack
type EngineOptions struct {
	HTTP    config.HTTPConfig
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	// TracingService enables otelgin spans under this service name when non-empty
	TracingService string
}

// NewEngine builds a gin engine carrying the middleware every route shares.
// Order: recovery, request id, access log, tracing, metrics, CORS, body limit, rate limit.
func NewEngine(opts EngineOptions) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, err
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	if opts.TracingService != "" {
		engine.Use(middleware.Tracing(opts.TracingService))
	}
	if opts.Metrics != nil {
		engine.Use(opts.Metrics.Middleware())
	}
	engine.Use(middleware.CORS(opts.HTTP))
	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	if opts.HTTP.RateLimitEnabled {
		engine.Use(middleware.NewRateLimiter(opts.HTTP.RateLimitRequests, opts.HTTP.RateLimitWindow).Middleware())
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeNotFound), dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID("METHOD_NOT_ALLOWED", "Method not allowed", middleware.GetRequestID(c)))
	})

	middleware.SetupValidator()
	return engine, nil
}
