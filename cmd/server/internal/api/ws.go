package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/houzhh15/meethub/cmd/server/internal/hub"
	"github.com/houzhh15/meethub/cmd/server/internal/insight"
	"github.com/houzhh15/meethub/cmd/server/internal/notes"
	"github.com/houzhh15/meethub/cmd/server/internal/stream"
	"github.com/houzhh15/meethub/cmd/server/internal/transcribe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  8192,
	WriteBufferSize: 4096,
	// Browser clients connect from the frontend origin; token auth happens
	// in middleware before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleMeetingSocket upgrades the transcript-channel websocket.
// GET /ws/meetings/:meeting_id
//
// Inbound binary frames carry raw PCM16LE mono audio and feed the
// connection's segmenter; the receive loop never waits on transcription or
// enrichment. Non-binary frames are ignored. The connection leaves its room
// on any read error.
func HandleMeetingSocket(rooms *hub.Hub, chunkThreshold int, tr transcribe.Transcriber, coord *insight.Coordinator, sup *insight.Supervisor, callTimeout time.Duration, log *slog.Logger) gin.HandlerFunc {
	wsLogger := log.With("component", "meeting-ws")
	return func(c *gin.Context) {
		meetingID := c.Param("meeting_id")

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			wsLogger.Error("websocket upgrade failed", "meeting_id", meetingID, "error", err)
			return
		}
		conn := hub.NewWSConn(ws)
		rooms.Join(meetingID, conn)

		segmenter := stream.NewSegmenter(meetingID, chunkThreshold, tr, callTimeout, func(fragment *transcribe.Fragment) {
			coord.OnFragment(meetingID, fragment)
		}, sup.Spawn, log)

		defer func() {
			rooms.Leave(meetingID, conn)
			conn.Close()
			wsLogger.Info("client disconnected", "meeting_id", meetingID, "conn", conn.ID())
		}()

		for {
			msgType, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.BinaryMessage {
				continue
			}
			segmenter.Ingest(data)
		}
	}
}

// HandleNotesSocket upgrades the notes-channel websocket.
// GET /ws/notes/:meeting_id
//
// Inbound text frames carry opaque JSON note payloads relayed to the other
// room members; the sender never receives its own edit back.
func HandleNotesSocket(rooms *hub.Hub, relay *notes.Relay, log *slog.Logger) gin.HandlerFunc {
	wsLogger := log.With("component", "notes-ws")
	return func(c *gin.Context) {
		meetingID := c.Param("meeting_id")

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			wsLogger.Error("websocket upgrade failed", "meeting_id", meetingID, "error", err)
			return
		}
		conn := hub.NewWSConn(ws)
		rooms.Join(meetingID, conn)

		defer func() {
			rooms.Leave(meetingID, conn)
			conn.Close()
			wsLogger.Info("notes client disconnected", "meeting_id", meetingID, "conn", conn.ID())
		}()

		for {
			msgType, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			relay.HandleMessage(meetingID, conn, data)
		}
	}
}
