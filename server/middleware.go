package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cronosai/opsgate/payment"
	"github.com/cronosai/opsgate/types"
)

const requestIDHeader = "X-Request-ID"

// requestID stamps each request with a uuid, honoring one supplied by the
// caller so traces can cross service boundaries.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger records one structured line per request after completion.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.log.Info("request", map[string]any{
			"requestId": c.GetString("requestID"),
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"elapsedMs": time.Since(start).Milliseconds(),
		})
	}
}

// recovery converts panics into opaque 500s. Panic detail goes to the log,
// never to the response body.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		s.log.Error("panic recovered", map[string]any{
			"requestId": c.GetString("requestID"),
			"path":      c.Request.URL.Path,
			"panic":     recovered,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":     false,
			"error":       types.ErrInternal,
			"message":     types.ErrUnexpected.UserMessage,
			"recoverable": true,
		})
	})
}

func corsMiddleware(frontendURL string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{frontendURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "Authorization", payment.PaymentHeader},
		MaxAge:       12 * time.Hour,
	})
}
