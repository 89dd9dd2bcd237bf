package transcribe

import (
	"context"
	"log/slog"
)

// MockTranscriber is the degraded-mode fallback used when no whisper service
// is reachable. It keeps the websocket and meeting paths operational by
// returning empty results without ever blocking or erroring; clients see a
// connected session that simply produces no transcript.
type MockTranscriber struct {
	log *slog.Logger
}

// NewMockTranscriber creates the fallback transcriber.
func NewMockTranscriber(log *slog.Logger) *MockTranscriber {
	return &MockTranscriber{log: log.With("component", "transcriber", "impl", "mock-degraded")}
}

// TranscribeChunk logs the degraded call and reports nothing transcribed.
func (m *MockTranscriber) TranscribeChunk(ctx context.Context, samples []float32) (*Fragment, error) {
	m.log.Warn("TranscribeChunk called in degraded mode, returning empty fragment", "samples", len(samples))
	return nil, nil
}

// TranscribeFile returns an empty transcript in degraded mode.
func (m *MockTranscriber) TranscribeFile(ctx context.Context, path string) (string, error) {
	m.log.Warn("TranscribeFile called in degraded mode, returning empty transcript", "path", path)
	return "", nil
}

// Ready always reports false so health output reflects the degraded state.
func (m *MockTranscriber) Ready() bool {
	return false
}

// Name identifies this implementation.
func (m *MockTranscriber) Name() string {
	return "mock-degraded"
}
