package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/houzhh15/meethub/pkg/logger"
)

// RequestLogger 写入结构化请求日志并注入 request_id
// 已认证请求附带 user（BearerAuth 写入的主体），websocket 升级请求打 ws 标记
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.NewString()
		c.Set("request_id", reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)

		isUpgrade := websocket.IsWebSocketUpgrade(c.Request)

		c.Next()

		duration := time.Since(start)

		attrs := []interface{}{
			"rid", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", duration.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if user := c.GetString("user"); user != "" {
			attrs = append(attrs, "user", user)
		}
		if isUpgrade {
			attrs = append(attrs, "ws", true)
		}
		logger.L().Info("http_request", attrs...)
	}
}
