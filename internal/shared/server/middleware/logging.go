package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

// Logging emits a structured log per request and records it in the request metrics.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.ObserveRequest(c.Request.Method, c.FullPath(), status)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if name := c.GetString("resumeFile"); name != "" {
			fields["resume_file"] = name
		}
		if stage := c.GetString("analysisStage"); stage != "" {
			fields["analysis_stage"] = stage
		}
		telemetry.Info("request.complete", fields)
	}
}
