package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/HungtdFPI/TaskforceAF/pkg/middleware/requestid"
)

// Audit logs who performed a state-changing action once it has succeeded.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}
		fields := []zap.Field{
			zap.String("action", action),
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestid.Value(c)),
			zap.String("ip", c.ClientIP()),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("report_id", id))
		}
		if actor, ok := ActorFromContext(c); ok {
			fields = append(fields,
				zap.String("user_id", actor.UserID),
				zap.String("role", string(actor.Role)),
				zap.String("campus", string(actor.Campus)))
		}
		logger.Info("audit", fields...)
	}
}
