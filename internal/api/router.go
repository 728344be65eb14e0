package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"attendtrack/internal/auth"
	"attendtrack/internal/httpmiddleware"
	"attendtrack/internal/metrics"
	"attendtrack/internal/model"
)

// RouterConfig carries the cross-cutting pieces the router wires around the handlers.
type RouterConfig struct {
	Log            *zap.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	AuthLimiter    httpmiddleware.Limiter
	AllowedOrigins []string
	Production     bool
}

// NewRouter builds the gin engine.
func NewRouter(h *Handler, authn *auth.Authenticator, rc RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(rc.Log, "/api/health", "/readyz", "/metrics"))
	if rc.Metrics != nil {
		r.Use(rc.Metrics.GinMiddleware())
	}
	r.Use(corsMiddleware(rc.AllowedOrigins))
	r.Use(httpmiddleware.SecurityHeaders(rc.Production))

	if rc.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(rc.Gatherer, promhttp.HandlerOpts{})))
	}
	r.GET("/readyz", h.Ready)

	api := r.Group("/api")
	api.GET("/health", h.Health)

	authRoutes := api.Group("/auth")
	if rc.AuthLimiter != nil {
		authRoutes.Use(httpmiddleware.RateLimit(rc.AuthLimiter, rc.Log))
	}
	authRoutes.POST("/register", h.Register)
	authRoutes.POST("/login", h.Login)
	authRoutes.POST("/logout", authn.Middleware(), h.Logout)

	protected := api.Group("", authn.Middleware())
	requireAdmin := auth.RequireRole(model.RoleAdmin)

	att := protected.Group("/attendance")
	att.POST("", h.MarkAttendance)
	att.GET("", h.ListAttendance)
	att.GET("/today", h.Today)
	att.GET("/user/:userId", requireAdmin, h.UserAttendance)

	us := protected.Group("/users")
	us.GET("", requireAdmin, h.ListUsers)
	us.GET("/profile", h.Profile)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", httpmiddleware.RequestIDHeader},
		ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
