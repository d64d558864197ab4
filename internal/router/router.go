package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/validation"
)

// Options collects what the router needs to serve the API.
type Options struct {
	DB         *gorm.DB
	Services   api.Services
	Pagination api.Pagination

	CORSOrigins []string
	// CreationLimiter throttles recipe creation; nil disables it.
	CreationLimiter *middleware.RateLimiter

	// Registry receives the HTTP metrics and is exposed on /metrics.
	Registry *prometheus.Registry

	// MediaRoot, when set, is served on /media for locally stored images.
	MediaRoot string
}

// SetupRouter configures the application routes
func SetupRouter(opts Options) *gin.Engine {
	validation.RegisterBindings()

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	if opts.Registry != nil {
		router.Use(middleware.NewMetrics(opts.Registry).Middleware())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}
	router.Use(middleware.CORS(opts.CORSOrigins))

	router.GET("/health", api.HealthCheck(opts.DB))
	router.GET("/api/health", api.HealthCheck(opts.DB))

	if opts.MediaRoot != "" {
		router.Static("/media", opts.MediaRoot)
	}

	api.RegisterRoutes(router, router.Group("/api"), opts.Services, opts.Pagination, opts.CreationLimiter)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": api.MsgNotFound})
	})

	return router
}
