package logging

import (
	"time"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader carries a caller supplied correlation id.
	RequestIDHeader = "X-Request-Id"

	requestIDKey = "request_id"
)

// Middleware assigns every request a reference id and logs one line per request.
// The id comes from X-Request-Id, then the API Gateway request context, then a fresh UUID.
func Middleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := resolveRequestID(c)
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= 500 {
			log.Warn("request failed", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// RequestID returns the id assigned by Middleware, or an empty string.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func resolveRequestID(c *gin.Context) string {
	if id := c.GetHeader(RequestIDHeader); id != "" {
		return id
	}
	if apigw, ok := core.GetAPIGatewayContextFromContext(c.Request.Context()); ok && apigw.RequestID != "" {
		return apigw.RequestID
	}
	return uuid.NewString()
}
