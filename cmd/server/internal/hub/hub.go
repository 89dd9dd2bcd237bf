package hub

import (
	"log/slog"
	"sync"

	"github.com/houzhh15/meethub/cmd/server/internal/metrics"
)

// Hub tracks which connections belong to which meeting room and delivers
// messages to all members, tolerating partial failures. Rooms are created
// lazily on first join and deleted when the last member leaves.
//
// Delivery guarantees: none across members (fan-out is best effort); per
// recipient, delivery order matches the order of Broadcast calls against the
// room. A recipient whose send fails is evicted as if it had disconnected.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Conn

	channel     string // metrics label: "meeting" or "notes"
	transcripts *Accumulator
	log         *slog.Logger
}

// New creates a Hub for the given channel kind. accumulator may be nil; when
// set, every EventTranscript broadcast appends its fragment text to the
// meeting's accumulated transcript before delivery.
func New(channel string, accumulator *Accumulator, log *slog.Logger) *Hub {
	return &Hub{
		rooms:       make(map[string]map[string]Conn),
		channel:     channel,
		transcripts: accumulator,
		log:         log.With("component", "hub", "channel", channel),
	}
}

// Join adds conn to the room, creating the room if absent. Joining a room the
// connection is already a member of is a no-op.
func (h *Hub) Join(roomID string, conn Conn) {
	h.mu.Lock()
	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[string]Conn)
		h.rooms[roomID] = room
	}
	_, existed := room[conn.ID()]
	room[conn.ID()] = conn
	size := len(room)
	h.mu.Unlock()

	if !existed {
		metrics.LiveConnections.WithLabelValues(h.channel).Inc()
	}
	h.log.Info("client joined", "room", roomID, "members", size)
}

// Leave removes conn from the room and deletes the room entry once empty.
// Leaving a room the connection is not a member of is a no-op.
func (h *Hub) Leave(roomID string, conn Conn) {
	h.mu.Lock()
	removed := h.removeLocked(roomID, conn.ID())
	h.mu.Unlock()

	if removed {
		metrics.LiveConnections.WithLabelValues(h.channel).Dec()
		h.log.Info("client left", "room", roomID)
	}
}

// Broadcast delivers v to every member of the room except exclude (may be
// nil). The member set is snapshotted under the lock and the lock released
// before any send, so a slow recipient never blocks membership changes. Each
// delivery failure is isolated: the failed connection is evicted after the
// pass and remaining members still receive the message. Returns the number of
// successful deliveries.
//
// Broadcasting to an unknown room is a silent no-op returning 0 — detached
// enrichment tasks may legitimately outlive the room they report to.
func (h *Hub) Broadcast(roomID string, v interface{}, exclude Conn) int {
	h.mu.RLock()
	room, ok := h.rooms[roomID]
	if !ok {
		h.mu.RUnlock()
		return 0
	}
	members := make([]Conn, 0, len(room))
	for _, c := range room {
		members = append(members, c)
	}
	h.mu.RUnlock()

	// The transcript cache must reflect the fragment before observers can
	// react to it, so append ahead of delivery.
	if ev, ok := v.(Event); ok && ev.Type == EventTranscript && h.transcripts != nil {
		if td, ok := ev.Data.(TranscriptData); ok {
			h.transcripts.Append(roomID, td.Text)
		}
	}

	sent := 0
	var failed []Conn
	for _, c := range members {
		if exclude != nil && c.ID() == exclude.ID() {
			continue
		}
		if err := c.Send(v); err != nil {
			h.log.Error("broadcast delivery failed", "room", roomID, "conn", c.ID(), "error", err)
			metrics.RecordDelivery(h.channel, false)
			failed = append(failed, c)
			continue
		}
		metrics.RecordDelivery(h.channel, true)
		sent++
	}

	if len(failed) > 0 {
		h.mu.Lock()
		for _, c := range failed {
			if h.removeLocked(roomID, c.ID()) {
				metrics.LiveConnections.WithLabelValues(h.channel).Dec()
			}
		}
		h.mu.Unlock()
	}

	return sent
}

// SendError pushes an error envelope to a single connection. Failures are
// logged and swallowed; an unreachable client is handled by its own receive
// loop teardown.
func (h *Hub) SendError(conn Conn, message string) {
	if err := conn.Send(NewEvent(EventError, ErrorData{Message: message})); err != nil {
		h.log.Error("failed to send error event", "conn", conn.ID(), "error", err)
	}
}

// ConnectionCount returns the number of members currently in the room.
func (h *Hub) ConnectionCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// ActiveRooms returns the IDs of rooms with at least one member.
func (h *Hub) ActiveRooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	return ids
}

// removeLocked removes a member and prunes the room if empty. Caller holds mu.
func (h *Hub) removeLocked(roomID, connID string) bool {
	room, ok := h.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := room[connID]; !ok {
		return false
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
	return true
}
