// Package hub implements meeting room membership and best-effort fan-out of
// realtime events to websocket clients. Rooms are keyed by meeting ID; the
// transcript channel and the notes channel use separate Hub instances so their
// memberships never overlap even for the same meeting.
package hub

import (
	"time"
)

// EventType enumerates the outbound event envelope types. The set is closed:
// everything the server pushes to a meeting room is one of these.
type EventType string

const (
	EventTranscript  EventType = "transcript"
	EventSummary     EventType = "summary"
	EventSentiment   EventType = "sentiment"
	EventRAGInsights EventType = "rag_insights"
	EventError       EventType = "error"
)

// Event is the outbound envelope pushed to meeting room members. Events are
// immutable after creation; the same value is delivered to every recipient.
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// TranscriptData is the payload carried by EventTranscript events.
type TranscriptData struct {
	Text       string  `json:"text"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// SentimentData is the payload carried by EventSentiment events.
type SentimentData struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Confidence string  `json:"confidence"`
}

// ErrorData is the payload carried by EventError events.
type ErrorData struct {
	Message string `json:"message"`
}

// NewEvent builds an event envelope stamped with the current UTC time.
func NewEvent(t EventType, data interface{}) Event {
	return Event{
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
