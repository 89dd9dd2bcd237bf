package insight

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/houzhh15/meethub/cmd/server/internal/ai"
	"github.com/houzhh15/meethub/cmd/server/internal/hub"
	"github.com/houzhh15/meethub/cmd/server/internal/metrics"
	"github.com/houzhh15/meethub/cmd/server/internal/retrieval"
	"github.com/houzhh15/meethub/cmd/server/internal/transcribe"
)

const (
	// summaryMinWords gates summary generation: below this accumulated word
	// count a summary is not worth producing.
	summaryMinWords = 50

	// retrievalMinWords gates retrieval: shorter transcripts carry too little
	// signal to extract a meaningful query from.
	retrievalMinWords = 10
)

// Coordinator turns transcript fragments into broadcast events. The
// transcript event goes out immediately; enrichment runs on detached
// supervised goroutines and must never add latency to the audio-receive path.
//
// Summary and retrieval are deliberately collapsed per meeting through a
// singleflight group: under fast speech many fragments arrive while one
// summary is still being computed, and they all share that computation
// instead of fanning out unboundedly. Sentiment stays per fragment — its
// result (and its documented fallback) is tied to the individual fragment.
type Coordinator struct {
	rooms       *hub.Hub
	transcripts *hub.Accumulator
	sentiment   ai.SentimentAnalyzer
	summarizer  ai.Summarizer
	engine      retrieval.Engine // nil when retrieval is not configured
	sup         *Supervisor
	callTimeout time.Duration
	sf          singleflight.Group
	log         *slog.Logger
}

// NewCoordinator wires the coordinator. engine may be nil; the retrieval step
// is then skipped entirely.
func NewCoordinator(rooms *hub.Hub, transcripts *hub.Accumulator, sentiment ai.SentimentAnalyzer, summarizer ai.Summarizer, engine retrieval.Engine, sup *Supervisor, callTimeout time.Duration, log *slog.Logger) *Coordinator {
	return &Coordinator{
		rooms:       rooms,
		transcripts: transcripts,
		sentiment:   sentiment,
		summarizer:  summarizer,
		engine:      engine,
		sup:         sup,
		callTimeout: callTimeout,
		log:         log.With("component", "insight"),
	}
}

// OnFragment handles one non-empty transcript fragment: broadcast the
// transcript event first (the hub appends it to the meeting accumulator
// before delivery), then launch detached enrichment. Returns immediately.
func (c *Coordinator) OnFragment(meetingID string, fragment *transcribe.Fragment) {
	c.rooms.Broadcast(meetingID, hub.NewEvent(hub.EventTranscript, hub.TranscriptData{
		Text:       fragment.Text,
		Language:   fragment.Language,
		Confidence: fragment.Confidence,
	}), nil)

	c.EnrichDetached(meetingID, fragment.Text)
}

// EnrichDetached launches the enrichment task for a piece of transcript text.
// The task is not tied to any connection: if the room empties before it
// finishes, its broadcasts become silent no-ops.
func (c *Coordinator) EnrichDetached(meetingID, fragmentText string) {
	c.sup.Spawn(func() {
		c.enrich(meetingID, fragmentText)
	})
}

// enrich runs the three insight steps. Each step owns its errors: a failure
// is logged (sentiment additionally broadcasts its neutral fallback) and the
// remaining steps still run.
func (c *Coordinator) enrich(meetingID, fragmentText string) {
	base := c.sup.Context()

	c.runSentiment(base, meetingID, fragmentText)

	full := c.transcripts.Get(meetingID)
	words := c.transcripts.WordCount(meetingID)

	if words >= summaryMinWords {
		c.runSummary(base, meetingID, full)
	} else {
		metrics.RecordInsight("summary", "skipped")
	}

	if c.engine != nil && c.engine.Ready() && words >= retrievalMinWords {
		c.runRetrieval(base, meetingID, full)
	} else {
		metrics.RecordInsight("rag_insights", "skipped")
	}
}

func (c *Coordinator) runSentiment(base context.Context, meetingID, text string) {
	ctx, cancel := context.WithTimeout(base, c.callTimeout)
	defer cancel()

	result, err := c.sentiment.Analyze(ctx, text)
	if err != nil {
		// Degrade to the neutral fallback rather than staying silent; the
		// frontend always renders a sentiment for every fragment.
		c.log.Error("sentiment analysis failed", "meeting_id", meetingID, "error", err)
		metrics.RecordInsight("sentiment", "error")
		c.rooms.Broadcast(meetingID, hub.NewEvent(hub.EventSentiment, hub.SentimentData{
			Label:      "NEUTRAL",
			Score:      0.5,
			Confidence: "low",
		}), nil)
		return
	}

	metrics.RecordInsight("sentiment", "success")
	c.rooms.Broadcast(meetingID, hub.NewEvent(hub.EventSentiment, hub.SentimentData{
		Label:      result.Label,
		Score:      result.Score,
		Confidence: confidenceBucket(result.Score),
	}), nil)
}

func (c *Coordinator) runSummary(base context.Context, meetingID, transcript string) {
	_, err, _ := c.sf.Do("summary:"+meetingID, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(base, c.callTimeout)
		defer cancel()

		result, err := c.summarizer.Summarize(ctx, transcript)
		if err != nil {
			return nil, err
		}
		c.rooms.Broadcast(meetingID, hub.NewEvent(hub.EventSummary, result), nil)
		return nil, nil
	})
	if err != nil {
		c.log.Error("summary generation failed", "meeting_id", meetingID, "error", err)
		metrics.RecordInsight("summary", "error")
		return
	}
	metrics.RecordInsight("summary", "success")
}

func (c *Coordinator) runRetrieval(base context.Context, meetingID, transcript string) {
	_, err, _ := c.sf.Do("rag:"+meetingID, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(base, c.callTimeout)
		defer cancel()

		insights, err := c.engine.Query(ctx, transcript, 3)
		if err != nil {
			return nil, err
		}
		if insights == nil {
			// Nothing relevant found; degraded, not an error.
			return nil, nil
		}
		c.rooms.Broadcast(meetingID, hub.NewEvent(hub.EventRAGInsights, insights), nil)
		return nil, nil
	})
	if err != nil {
		c.log.Error("retrieval insight failed", "meeting_id", meetingID, "error", err)
		metrics.RecordInsight("rag_insights", "error")
		return
	}
	metrics.RecordInsight("rag_insights", "success")
}

// confidenceBucket maps a classifier score onto the coarse confidence label
// shipped to clients.
func confidenceBucket(score float64) string {
	switch {
	case score > 0.8:
		return "high"
	case score > 0.6:
		return "medium"
	default:
		return "low"
	}
}
