package respond

import (
	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/telemetry"
)

// ErrorResponse is the body of every failed request. Error carries the error text;
// Code names the failure category.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error logs the failure and aborts the request with a standardized error body.
func Error(c *gin.Context, status int, code, message string) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
