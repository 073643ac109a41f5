// Package logger builds the zap logger shared by every component and a
// gin middleware that logs each request through it.
package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewFromEnv returns a production JSON logger, or a development logger
// with human-readable output and debug level when debug is true.
func NewFromEnv(debug bool) *zap.Logger {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		log, err := cfg.Build()
		if err != nil {
			return zap.NewNop()
		}
		return log
	}

	log, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// RequestLogger logs method, path, status, latency, and client IP for
// every request at Info level, or Error level for 5xx responses.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= 500 {
			log.Error("request", fields...)
		} else {
			log.Info("request", fields...)
		}
	}
}
