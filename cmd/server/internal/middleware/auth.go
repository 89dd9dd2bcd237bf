package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims 是接入令牌的 JWT 载荷
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// ParseToken 校验并解析 Bearer 令牌
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// BearerAuth 校验 /api 与 /ws 路由的接入令牌
// HTTP 请求使用 Authorization: Bearer 头；websocket 升级请求可改用 ?token= 参数
// （浏览器 WebSocket API 无法设置自定义请求头）
func BearerAuth(secret []byte, authLogger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api/v1/token" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenString := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenString = auth[7:]
		} else if strings.HasPrefix(path, "/ws/") {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			authLogger.Warn("missing bearer token", "method", c.Request.Method, "path", path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			authLogger.Warn("invalid token", "method", c.Request.Method, "path", path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("user", claims.Subject)
		c.Next()
	}
}
