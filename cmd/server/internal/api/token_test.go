package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/houzhh15/meethub/cmd/server/internal/middleware"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tokenRouter(passwordHash string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/token", HandleIssueToken(testSecret, passwordHash, testLogger()))
	return r
}

func postToken(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleIssueToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	t.Run("valid credentials yield a parseable token", func(t *testing.T) {
		r := tokenRouter(string(hash))
		w := postToken(r, `{"client_id":"frontend","password":"secret-password"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}

		var resp struct {
			Token     string `json:"token"`
			ExpiresIn int    `json:"expires_in"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.ExpiresIn != int(tokenTTL.Seconds()) {
			t.Errorf("expires_in = %d", resp.ExpiresIn)
		}

		claims, err := middleware.ParseToken(testSecret, resp.Token)
		if err != nil {
			t.Fatalf("issued token does not parse: %v", err)
		}
		if claims.Subject != "frontend" {
			t.Errorf("Subject = %q", claims.Subject)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		r := tokenRouter(string(hash))
		w := postToken(r, `{"client_id":"frontend","password":"wrong"}`)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("missing client_id rejected", func(t *testing.T) {
		r := tokenRouter(string(hash))
		w := postToken(r, `{"password":"secret-password"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		r := tokenRouter(string(hash))
		w := postToken(r, `{broken`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("no hash configured accepts any password", func(t *testing.T) {
		r := tokenRouter("")
		w := postToken(r, `{"client_id":"dev","password":""}`)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 in dev mode", w.Code)
		}
	})
}
