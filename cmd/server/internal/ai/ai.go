// Package ai defines the summarization and sentiment collaborators consumed
// by the insight coordinator, with HTTP implementations against an inference
// sidecar.
package ai

import (
	"context"
)

// SummaryResult is the outcome of summarizing a meeting transcript.
type SummaryResult struct {
	Summary      string   `json:"summary"`
	ActionItems  []string `json:"action_items"`
	WordCount    int      `json:"word_count"`
	SummaryRatio float64  `json:"summary_ratio"`
}

// SentimentResult is the outcome of sentiment analysis on a fragment.
type SentimentResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Summarizer generates meeting summaries with extracted action items.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*SummaryResult, error)
	Ready() bool
}

// SentimentAnalyzer classifies the sentiment of a text fragment.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (*SentimentResult, error)
	Ready() bool
}
