package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/services/health"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
)

// RouteRegistrar is implemented by handlers that mount their own routes.
type RouteRegistrar interface {
	RegisterRoutes(r gin.IRoutes)
}

// RouterDeps carries everything NewRouter wires into the engine.
type RouterDeps struct {
	Config   config.Config
	Analysis RouteRegistrar
	Health   *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = deps.Config.MaxUploadBytes

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		respond.OK(c, deps.Health.Status())
	})
	r.GET("/metrics", metrics.Handler())

	if deps.Analysis != nil {
		deps.Analysis.RegisterRoutes(r)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found")
	})

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
