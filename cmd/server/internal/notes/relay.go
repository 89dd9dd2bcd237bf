// Package notes relays collaborative note-editing events between the members
// of a meeting's notes room.
package notes

import (
	"encoding/json"
	"log/slog"

	"github.com/houzhh15/meethub/cmd/server/internal/hub"
	"github.com/houzhh15/meethub/cmd/server/internal/store"
)

// Relay broadcasts inbound note payloads to every room member except the
// sender. Payloads are opaque: only the "type" field is interpreted, and only
// to detect save requests — unknown types (or payloads without a type) are
// forwarded verbatim as passthrough.
type Relay struct {
	rooms *hub.Hub
	notes store.NotesStore
	spawn func(func())
	log   *slog.Logger
}

// NewRelay wires the relay. spawn runs the fire-and-forget persistence task;
// pass nil for a plain goroutine.
func NewRelay(rooms *hub.Hub, notes store.NotesStore, spawn func(func()), log *slog.Logger) *Relay {
	if spawn == nil {
		spawn = func(fn func()) { go fn() }
	}
	return &Relay{
		rooms: rooms,
		notes: notes,
		spawn: spawn,
		log:   log.With("component", "notes-relay"),
	}
}

// HandleMessage relays one inbound text frame from sender to the rest of the
// room. A "save" payload additionally flushes its content to the notes store;
// persistence failures are logged, never surfaced to the sender.
func (r *Relay) HandleMessage(meetingID string, sender hub.Conn, raw []byte) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		r.log.Error("invalid notes payload", "meeting_id", meetingID, "error", err)
		return
	}

	r.rooms.Broadcast(meetingID, payload, sender)

	msgType, _ := payload["type"].(string)
	if msgType != "save" {
		return
	}
	content, _ := payload["content"].(string)
	author, _ := payload["author"].(string)
	r.spawn(func() {
		if err := r.notes.Upsert(meetingID, content, author); err != nil {
			r.log.Error("failed to persist notes", "meeting_id", meetingID, "error", err)
			return
		}
		r.log.Info("notes saved", "meeting_id", meetingID)
	})
}
