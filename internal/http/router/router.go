// Package router assembles the gin engine from the registered modules.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apphttp "leadagent_backend/internal/http"
	"leadagent_backend/platform/config"
	"leadagent_backend/platform/httpkit"
	"leadagent_backend/platform/logger"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// New builds the HTTP engine: shared middleware, health endpoints and
// the routes of every registered module.
func New(cfg *config.Config, log *logger.Logger, health HealthChecker, modules ...apphttp.Module) *gin.Engine {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(log))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(cfg))

	apiLimiter := httpkit.NewIPRateLimiter(5, 20, log)
	engine.Use(apiLimiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rctx := &apphttp.RouterContext{
		Engine:          engine,
		V1:              engine.Group("/api/v1"),
		Config:          cfg,
		TurnRateLimiter: httpkit.NewTurnRateLimiter(log),
	}
	for _, m := range modules {
		m.RegisterRoutes(rctx)
		log.Info("module routes registered", "module", m.Name())
	}
	return engine
}

func corsMiddleware(cfg config.HTTPConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return cors.New(corsCfg)
}
