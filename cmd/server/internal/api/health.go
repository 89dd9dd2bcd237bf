package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/meethub/cmd/server/internal/ai"
	"github.com/houzhh15/meethub/cmd/server/internal/hub"
	"github.com/houzhh15/meethub/cmd/server/internal/retrieval"
	"github.com/houzhh15/meethub/cmd/server/internal/transcribe"
)

// HandleHealth reports process health and per-collaborator readiness.
// GET /health
func HandleHealth(startTime time.Time, tr transcribe.Transcriber, inference *ai.InferenceHTTP, engine retrieval.Engine, meetingRooms *hub.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"services": gin.H{
				"transcription": tr.Ready(),
				"ai":            inference.Ready(),
				"retrieval":     engine != nil && engine.Ready(),
			},
			"active_meetings": len(meetingRooms.ActiveRooms()),
		})
	}
}

// HandleReadiness gates traffic on the transcriber: without it the streaming
// path is useless even though the process is alive.
// GET /readiness
func HandleReadiness(tr transcribe.Transcriber) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tr.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"reason": "transcriber not ready",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ready": true})
	}
}
