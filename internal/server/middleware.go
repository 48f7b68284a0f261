package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/wildlens/internal/logging"
	"github.com/ppiankov/wildlens/internal/telemetry"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	loggerKey       = "logger"
	maxRequestIDLen = 128
)

// RequestIDMiddleware assigns each request an ID, reusing a sane inbound
// X-Request-ID, and stores a request-scoped logger in the context.
func RequestIDMiddleware(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = newRequestID()
		}

		c.Set(requestIDKey, requestID)
		c.Set(loggerKey, log.With(logging.String("request_id", requestID)))
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()
	}
}

func newRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%032x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// requestLogger returns the request-scoped logger, or fallback before RequestIDMiddleware ran
func requestLogger(c *gin.Context, fallback logging.Logger) logging.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(logging.Logger); ok {
			return l
		}
	}
	return fallback
}

// LoggerMiddleware logs one entry per request, including any handler errors
func LoggerMiddleware(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("duration", time.Since(start)),
			logging.String("client_ip", c.ClientIP()),
		}
		if !strings.HasPrefix(path, "/health") && !strings.HasPrefix(path, "/metrics") {
			fields = append(fields, logging.String("user_agent", c.Request.UserAgent()))
		}

		l := requestLogger(c, log)
		if len(c.Errors) > 0 {
			fields = append(fields, logging.Strings("errors", c.Errors.Errors()))
			l.Error("HTTP request with errors", fields...)
			return
		}
		l.Info("HTTP request", fields...)
	}
}

// RecoveryMiddleware turns panics into a logged 500
func RecoveryMiddleware(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				requestLogger(c, log).Error("Panic recovered",
					logging.Any("panic", rec),
					logging.String("path", c.Request.URL.Path),
					logging.String("method", c.Request.Method),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()

		c.Next()
	}
}

// MetricsMiddleware records request counts and latency per route
func MetricsMiddleware(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
