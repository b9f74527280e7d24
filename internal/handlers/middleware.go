package handlers

import (
	"bytes"
	"crypto/subtle"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxengine-api/internal/logger"
)

// RequestLog represents a structured log entry for an HTTP request
type RequestLog struct {
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	Query         string    `json:"query"`
	UserAgent     string    `json:"user_agent"`
	ClientIP      string    `json:"client_ip"`
	RequestID     string    `json:"request_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Body          string    `json:"body"`
	Timestamp     time.Time `json:"timestamp"`
}

// RequestID assigns a request ID and echoes the caller's correlation ID so
// every log line for a request can be tied together.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		if correlationID := c.GetHeader("X-Correlation-ID"); correlationID != "" {
			c.Set("correlation_id", correlationID)
		}
		c.Next()
	}
}

// RequireAPIKey rejects requests whose X-API-Key header does not match one
// of the configured keys.
func RequireAPIKey(keys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-Key")
		for _, key := range keys {
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) == 1 {
				c.Next()
				return
			}
		}
		logger.Log.Debug("Authentication failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("client_ip", c.ClientIP()),
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
		c.Abort()
	}
}

// shouldSkipLogging determines if request logging should be skipped for a given path
func shouldSkipLogging(path string) bool {
	// Skip logging for health check endpoints
	if path == "/health" || path == "/healthz" || path == "/readyz" {
		return true
	}
	return false
}

// getRequestBody safely reads and returns the request body
func getRequestBody(c *gin.Context) ([]byte, error) {
	var bodyBytes []byte
	if c.Request.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		// Restore the request body for subsequent middleware/handlers
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}
	return bodyBytes, nil
}

// LogRequest is a middleware that logs the request body
func LogRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for certain paths
		if shouldSkipLogging(c.Request.URL.Path) {
			c.Next()
			return
		}

		// Get request body
		bodyBytes, err := getRequestBody(c)
		if err != nil {
			logger.Log.Error("Failed to read request body",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			c.Next()
			return
		}

		requestLog := RequestLog{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Query:         c.Request.URL.RawQuery,
			UserAgent:     c.Request.UserAgent(),
			ClientIP:      c.ClientIP(),
			RequestID:     c.GetString("request_id"),
			CorrelationID: c.GetString("correlation_id"),
			Body:          string(bodyBytes),
			Timestamp:     time.Now().UTC(),
		}

		logger.Log.Debug("Request received",
			zap.String("method", requestLog.Method),
			zap.String("path", requestLog.Path),
			zap.String("query", requestLog.Query),
			zap.String("user_agent", requestLog.UserAgent),
			zap.String("client_ip", requestLog.ClientIP),
			zap.String("request_id", requestLog.RequestID),
			zap.String("correlation_id", requestLog.CorrelationID),
			zap.String("body", requestLog.Body),
			zap.Time("timestamp", requestLog.Timestamp),
		)

		c.Next()
	}
}
