package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/houzhh15/meethub/cmd/server/internal/metrics"
	"github.com/houzhh15/meethub/cmd/server/internal/transcribe"
	"github.com/houzhh15/meethub/pkg/logger"
)

// Segmenter accumulates raw PCM bytes for one connection and hands fixed-size
// chunks to the transcriber, at most one chunk in flight at a time.
//
// Invariant: extracted bytes plus buffered bytes equal all bytes ever
// ingested — extraction takes exactly threshold bytes from the head and the
// remainder keeps accumulating. The buffer and the in-flight flag are guarded
// by one mutex because both the connection's receive loop (Ingest) and the
// detached transcription goroutine (completion) mutate them.
type Segmenter struct {
	mu       sync.Mutex
	buf      []byte
	inFlight bool

	meetingID   string
	threshold   int
	transcriber transcribe.Transcriber
	callTimeout time.Duration
	onFragment  func(*transcribe.Fragment)
	spawn       func(func())
	log         *slog.Logger
}

// NewSegmenter creates a segmenter for one connection. threshold is the chunk
// size in bytes; onFragment is invoked from the transcription goroutine for
// every non-empty fragment and must not block for long. spawn launches the
// detached transcription task; pass nil for a plain goroutine.
func NewSegmenter(meetingID string, threshold int, tr transcribe.Transcriber, callTimeout time.Duration, onFragment func(*transcribe.Fragment), spawn func(func()), log *slog.Logger) *Segmenter {
	if spawn == nil {
		spawn = func(fn func()) { go fn() }
	}
	return &Segmenter{
		meetingID:   meetingID,
		threshold:   threshold,
		transcriber: tr,
		callTimeout: callTimeout,
		onFragment:  onFragment,
		spawn:       spawn,
		log:         log.With("component", "segmenter"),
	}
}

// Ingest appends data to the buffer unconditionally. When the buffer reaches
// the chunk threshold and no chunk is currently in flight, exactly threshold
// bytes are extracted from the head and transcribed on a detached goroutine;
// Ingest itself never waits on the transcriber. While a chunk is in flight,
// further threshold crossings accumulate and are drawn down by a later Ingest
// once the current transcription completes.
func (s *Segmenter) Ingest(data []byte) {
	s.mu.Lock()
	s.buf = append(s.buf, data...)
	if len(s.buf) < s.threshold || s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	chunk := make([]byte, s.threshold)
	copy(chunk, s.buf[:s.threshold])
	rest := make([]byte, len(s.buf)-s.threshold)
	copy(rest, s.buf[s.threshold:])
	s.buf = rest
	s.mu.Unlock()

	s.spawn(func() { s.process(chunk) })
}

// process transcribes one extracted chunk. The single-flight guard is
// released the moment transcription completes, success or failure: delivering
// the fragment can block on a slow recipient and must never keep the next
// chunk from being extracted.
func (s *Segmenter) process(chunk []byte) {
	samples := DecodePCM16(chunk)
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
	fragment, err := s.transcriber.TranscribeChunk(ctx, samples)
	cancel()

	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()

	if err != nil {
		// A failed attempt yields no fragment; ingestion continues.
		logger.LogStreamEvent(s.log, "segmenter", "transcribe", s.meetingID, time.Since(start).Milliseconds(), "transcription_failed")
		metrics.RecordChunk("error")
		return
	}
	if fragment == nil {
		metrics.RecordChunk("empty")
		return
	}

	logger.LogStreamEvent(s.log, "segmenter", "transcribe", s.meetingID, time.Since(start).Milliseconds(), "")
	metrics.RecordChunk("success")
	if s.onFragment != nil {
		s.onFragment(fragment)
	}
}

// BufferedBytes returns the number of bytes currently held in the buffer.
func (s *Segmenter) BufferedBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Processing reports whether a chunk is currently in flight.
func (s *Segmenter) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
