// Package store persists meeting notes and transcripts as JSON files under
// the meetings data directory, one subdirectory per meeting.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// NotesStore persists collaborative note content. Upsert is idempotent per
// meeting: it replaces the existing note or creates one.
type NotesStore interface {
	Upsert(meetingID, content, author string) error
}

// MeetingStore persists transcripts produced by the whole-file upload path.
type MeetingStore interface {
	AppendTranscript(meetingID, text string) error
}

// Note is the persisted note document for one meeting.
type Note struct {
	MeetingID string `json:"meeting_id"`
	Content   string `json:"content"`
	Author    string `json:"author,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// MeetingRecord is the persisted meeting document.
type MeetingRecord struct {
	MeetingID  string `json:"meeting_id"`
	Transcript string `json:"transcript"`
	UpdatedAt  string `json:"updated_at"`
}

// FileStore implements NotesStore and MeetingStore over per-meeting JSON
// files. Writes to the same meeting are serialized with a lock; the store is
// shared by the notes relay and the upload handler.
type FileStore struct {
	mu      sync.Mutex
	baseDir string
}

// NewFileStore creates the store rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

// Upsert replaces or creates the note for a meeting, preserving the original
// creation timestamp on replace.
func (s *FileStore) Upsert(meetingID, content, author string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.meetingPath(meetingID, "note.json")
	now := time.Now().UTC().Format(time.RFC3339)

	note := Note{MeetingID: meetingID, CreatedAt: now}
	if data, err := os.ReadFile(path); err == nil {
		var existing Note
		if err := json.Unmarshal(data, &existing); err == nil && existing.CreatedAt != "" {
			note.CreatedAt = existing.CreatedAt
		}
	}
	note.Content = content
	note.Author = author
	note.UpdatedAt = now

	return s.writeJSON(path, note)
}

// AppendTranscript appends text to the meeting's stored transcript.
func (s *FileStore) AppendTranscript(meetingID, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.meetingPath(meetingID, "meeting.json")
	record := MeetingRecord{MeetingID: meetingID}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("unmarshal meeting record: %w", err)
		}
	}
	if record.Transcript != "" {
		record.Transcript += " "
	}
	record.Transcript += strings.TrimSpace(text)
	record.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	return s.writeJSON(path, record)
}

// GetNote reads the persisted note for a meeting, or nil if none exists.
func (s *FileStore) GetNote(meetingID string) (*Note, error) {
	data, err := os.ReadFile(s.meetingPath(meetingID, "note.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read note: %w", err)
	}
	var note Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("unmarshal note: %w", err)
	}
	return &note, nil
}

func (s *FileStore) meetingPath(meetingID, file string) string {
	return filepath.Join(s.baseDir, meetingID, file)
}

func (s *FileStore) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
