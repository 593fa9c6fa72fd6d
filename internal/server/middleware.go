package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ppiankov/linkvet/internal/logging"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "run_id"
)

// RunIDMiddleware tags each request with a run id, taken from X-Request-ID or
// generated, and stores a logger carrying it in the request context.
func RunIDMiddleware(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		runID := c.GetHeader(requestIDHeader)
		if runID == "" {
			runID = uuid.NewString()
		}

		c.Set(requestIDKey, runID)
		c.Writer.Header().Set(requestIDHeader, runID)

		reqLog := log.With(logging.String(requestIDKey, runID))
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), reqLog))

		c.Next()
	}
}

// LoggerMiddleware logs one entry per request with method, path, status and duration
func LoggerMiddleware(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		reqLog := logging.FromContext(c.Request.Context(), log)
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("duration", time.Since(start)),
			logging.String("client_ip", c.ClientIP()),
		}

		if len(c.Errors) > 0 {
			messages := make([]string, len(c.Errors))
			for i, err := range c.Errors {
				messages[i] = err.Err.Error()
			}
			fields = append(fields, logging.Strings("errors", messages))
			reqLog.Error("HTTP request with errors", fields...)
			return
		}

		// Health checks would drown out real traffic at info level
		if strings.HasPrefix(path, "/health") || path == "/ready" || path == "/metrics" {
			reqLog.Debug("HTTP request", fields...)
			return
		}
		reqLog.Info("HTTP request", fields...)
	}
}

// RecoveryMiddleware converts panics into a logged 500 response
func RecoveryMiddleware(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.FromContext(c.Request.Context(), log).Error("panic recovered",
					logging.Any("error", rec),
					logging.String("path", c.Request.URL.Path),
					logging.String("method", c.Request.Method),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
					Error: "internal server error",
					Kind:  "internal",
				})
			}
		}()

		c.Next()
	}
}
