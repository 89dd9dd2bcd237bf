package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/houzhh15/meethub/cmd/server/internal/middleware"
)

const tokenTTL = 24 * time.Hour

// HandleIssueToken exchanges the shared API credential for a bearer token.
// POST /api/v1/token
//
// When no API password hash is configured (dev environments), any credential
// is accepted.
func HandleIssueToken(secret []byte, passwordHash string, log *slog.Logger) gin.HandlerFunc {
	authLogger := log.With("component", "token")
	return func(c *gin.Context) {
		var cred struct {
			ClientID string `json:"client_id"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&cred); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if cred.ClientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
			return
		}

		if passwordHash != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(cred.Password)); err != nil {
				authLogger.Warn("token issuance rejected", "client_id", cred.ClientID)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
		}

		now := time.Now()
		claims := middleware.Claims{
			Subject: cred.ClientID,
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		if err != nil {
			authLogger.Error("token signing failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(tokenTTL.Seconds())})
	}
}
