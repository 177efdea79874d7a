package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetbook-api/internal/handler/health"
	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/metrics"
)

// Handler is a route group that registers itself under /api/v1.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup, *middleware.AuthMiddleware)
}

type RouterConfig struct {
	Mode             string
	RateLimitEnabled bool
	RateLimit        float64
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	Timeout          time.Duration
	MaxBodySize      int64
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	health   *health.Handler
	handlers []Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH *health.Handler,
	handlers []Handler,
	log *logger.Logger,
	m *metrics.Metrics,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()

	timeout := middleware.DefaultTimeoutConfig()
	if config.Timeout > 0 {
		timeout.Duration = config.Timeout
	}

	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.MaxBodySize),
		middleware.Timeout(timeout),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return &Router{
		engine:   engine,
		auth:     auth,
		health:   healthH,
		handlers: handlers,
	}
}

func (r *Router) Setup() *gin.Engine {
	api := r.engine.Group("/api/v1")

	r.health.RegisterRoutes(api)
	for _, h := range r.handlers {
		h.RegisterRoutes(api, r.auth)
	}
	return r.engine
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
