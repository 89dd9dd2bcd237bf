package hub

import (
	"strings"
	"sync"
)

// Accumulator keeps the per-meeting running transcript in memory. It exists
// only as enrichment context: it is not persisted and is cleared by process
// restart. Concurrent fragments for the same meeting may interleave their
// appends; readers tolerate that, it only affects context quality.
type Accumulator struct {
	mu          sync.RWMutex
	transcripts map[string]string
}

// NewAccumulator creates an empty transcript accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{transcripts: make(map[string]string)}
}

// Append concatenates a fragment onto the meeting's running transcript.
func (a *Accumulator) Append(meetingID, text string) {
	if text == "" {
		return
	}
	a.mu.Lock()
	a.transcripts[meetingID] += " " + text
	a.mu.Unlock()
}

// Get returns the accumulated transcript for a meeting, or "" if none.
func (a *Accumulator) Get(meetingID string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.transcripts[meetingID]
}

// WordCount returns the number of whitespace-separated words accumulated so
// far for the meeting.
func (a *Accumulator) WordCount(meetingID string) int {
	return len(strings.Fields(a.Get(meetingID)))
}
