package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/meethub/pkg/logger"
)

func TestRequestLogger(t *testing.T) {
	if _, err := logger.Init(logger.Config{Level: "info"}); err != nil {
		t.Fatalf("logger init: %v", err)
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		if c.GetString("request_id") == "" {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Set("user", "alice")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}
