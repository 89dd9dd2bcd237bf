// Package transcribe provides an abstraction layer for speech-to-text
// services. It defines a standard interface and data structures so the
// streaming pipeline can run against an HTTP whisper sidecar in production
// and a degraded mock when no service is reachable.
package transcribe

import (
	"context"
)

// Fragment is one transcribed piece of streamed audio.
type Fragment struct {
	// Text is the transcribed text, trimmed of surrounding whitespace.
	Text string `json:"text"`

	// Language is the detected language code (e.g., "en", "zh").
	Language string `json:"language,omitempty"`

	// Confidence is the service-reported confidence in [0,1], 0 if unknown.
	Confidence float64 `json:"confidence,omitempty"`
}

// Transcriber is the speech-to-text collaborator consumed by the streaming
// pipeline. Implementations must respect context cancellation and wrap
// external errors with context ("transcribe chunk: %w").
type Transcriber interface {
	// TranscribeChunk transcribes one chunk of mono audio. Samples are
	// normalized float32 PCM in [-1, 1] at the configured sample rate.
	// An empty or whitespace-only transcription returns (nil, nil), not an
	// error; callers treat nil fragments as "nothing said".
	TranscribeChunk(ctx context.Context, samples []float32) (*Fragment, error)

	// TranscribeFile transcribes an entire audio file on disk. Used by the
	// upload path only; it never touches the streaming buffer state.
	TranscribeFile(ctx context.Context, path string) (string, error)

	// Ready reports whether the service can currently transcribe.
	Ready() bool

	// Name identifies the implementation in logs and health output.
	Name() string
}
