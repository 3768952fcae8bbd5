package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Jawadyyy/healthmate-portal/internal/handler/prometheus"
	"github.com/Jawadyyy/healthmate-portal/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine         *gin.Engine
	healthH        Handler
	authH          Handler
	requireSession gin.HandlerFunc
	portalH        []Handler
	metrics        *prometheus.Handler
	config         RouterConfig
}

type RouterConfig struct {
	RateLimit      rate.Limit
	RateBurst      int
	CORSConfig     middleware.CORSConfig
	RequestTimeout time.Duration
	MaxBodySize    int64
	SecureHeaders  bool
	Mode           string
	// TrustedProxies may set X-Forwarded-For. Empty trusts none and
	// ClientIP is the peer address.
	TrustedProxies []string
}

// NewRouter wires the global middleware. portalH are registered under
// /api/v1/portal behind requireSession; authH handles its own split between
// public and session routes.
func NewRouter(
	healthH Handler,
	authH Handler,
	requireSession gin.HandlerFunc,
	metrics *prometheus.Handler,
	config RouterConfig,
	portalH ...Handler,
) *Router {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	gin.SetMode(config.Mode)

	engine := gin.New()
	if err := engine.SetTrustedProxies(config.TrustedProxies); err != nil {
		log.Error().Err(err).Strs("trusted_proxies", config.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = engine.SetTrustedProxies(nil)
	}

	r := &Router{
		engine:         engine,
		healthH:        healthH,
		authH:          authH,
		requireSession: requireSession,
		portalH:        portalH,
		metrics:        metrics,
		config:         config,
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = middleware.DefaultTimeoutConfig().Duration
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		metrics.Middleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig(config.SecureHeaders)),
		middleware.CORS(config.CORSConfig),
		middleware.Timeout(middleware.TimeoutConfig{Duration: timeout}),
	)

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)
	api.GET("/metrics", r.metrics.Handler())

	portal := api.Group("/portal", middleware.NoStore(), middleware.SizeLimit(r.config.MaxBodySize))
	r.authH.RegisterRoutes(portal)

	protected := portal.Group("", r.requireSession)
	for _, h := range r.portalH {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
