package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/pkg/logger"
	"ridehail/pkg/utils"
)

const (
	// LoggerKey is the gin context key holding the request-scoped logger.
	LoggerKey       = "logger"
	RequestIDHeader = "X-Request-ID"
)

// RequestLogger tags every request with an id, taken from X-Request-ID when
// the client sent one, and stores a logger carrying that id on the context.
// After the handler runs it logs one line with status and latency. Server
// errors are logged at error level, client errors at warning level.
func RequestLogger(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = utils.GenerateID()
		}
		c.Header(RequestIDHeader, requestID)
		reqLog := log.With(logger.String("request_id", requestID))
		c.Set(LoggerKey, reqLog)

		c.Next()

		status := c.Writer.Status()
		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", status),
			logger.Duration("latency", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		if identity := GetIdentity(c); identity != nil {
			fields = append(fields, logger.String("user_id", identity.UserID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			reqLog.Error("request", fields...)
		case status >= 400:
			reqLog.Warning("request", fields...)
		default:
			reqLog.Info("request", fields...)
		}
	}
}

// RequestLog returns the logger stored by RequestLogger, or fallback when the
// route runs without it.
func RequestLog(c *gin.Context, fallback logger.ILogger) logger.ILogger {
	if value, exists := c.Get(LoggerKey); exists {
		if l, ok := value.(logger.ILogger); ok {
			return l
		}
	}
	return fallback
}
