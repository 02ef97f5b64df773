package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/smiledesk/admin-api/internal/handler"
	"github.com/smiledesk/admin-api/internal/handler/prometheus"
	"github.com/smiledesk/admin-api/internal/middleware"
	"github.com/smiledesk/admin-api/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	Timeout    time.Duration
	CORSConfig middleware.CORSConfig
}

// Router assembles the HTTP surface: a public booking group throttled per
// IP, an authenticated tenant group behind the JWT and access-gate
// middleware, and the operational endpoints.
type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	access       *middleware.AccessMiddleware
	authH        Handler
	clinicH      Handler
	catalogH     Handler
	patientH     Handler
	appointmentH Handler
	bookingH     Handler
	billingH     Handler
	health       *handler.HealthHandler
	metrics      *prometheus.Handler
	cfg          Config
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	access *middleware.AccessMiddleware,
	authH Handler,
	clinicH Handler,
	catalogH Handler,
	patientH Handler,
	appointmentH Handler,
	bookingH Handler,
	billingH Handler,
	health *handler.HealthHandler,
	metrics *prometheus.Handler,
	log *logger.Logger,
	cfg Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
		metrics.Middleware(),
		middleware.Timeout(cfg.Timeout),
		middleware.CORS(cfg.CORSConfig),
	)

	return &Router{
		engine:       engine,
		auth:         auth,
		access:       access,
		authH:        authH,
		clinicH:      clinicH,
		catalogH:     catalogH,
		patientH:     patientH,
		appointmentH: appointmentH,
		bookingH:     bookingH,
		billingH:     billingH,
		health:       health,
		metrics:      metrics,
		cfg:          cfg,
	}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	health := api.Group("/health")
	{
		health.GET("/live", r.health.LivenessCheck)
		health.GET("/ready", r.health.ReadinessCheck)
	}
	r.engine.GET("/metrics", r.metrics.Handler())

	// Unauthenticated surface: signup, login, the public booking pages and
	// the billing webhook. Booking routes are rate limited per client IP.
	r.authH.RegisterRoutes(api)
	r.billingH.RegisterRoutes(api)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.cfg.RateLimit,
		Burst: r.cfg.RateBurst,
	})
	public := api.Group("")
	public.Use(limiter.RateLimit())
	r.bookingH.RegisterRoutes(public)

	// Tenant surface: everything scoped to the authenticated owner's clinic.
	// The access gate blocks lapsed trials on all scheduling routes.
	protected := api.Group("")
	protected.Use(r.auth.Authenticate(), r.access.RequireAccess())
	r.clinicH.RegisterRoutes(protected)
	r.catalogH.RegisterRoutes(protected)
	r.patientH.RegisterRoutes(protected)
	r.appointmentH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
