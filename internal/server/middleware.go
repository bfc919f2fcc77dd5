package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds caller-supplied request IDs.
const maxRequestIDLength = 64

// requestIDMiddleware keeps a caller-supplied X-Request-ID or generates one,
// and echoes it in the response.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// loggerMiddleware logs one line per request. The target URL is part of
// the query and goes through the secure handler's URL redaction.
func loggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"),
		}
		if target := c.Query("url"); target != "" {
			attrs = append(attrs, "url", target)
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.Last().Err)
			logger.Warn("HTTP request failed", attrs...)
			return
		}
		logger.Info("HTTP request", attrs...)
	}
}

// recoveryMiddleware turns a panic into a 500 error envelope.
func recoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorEnvelope(CodeInternal, "an unexpected error occurred"))
			}
		}()
		c.Next()
	}
}
