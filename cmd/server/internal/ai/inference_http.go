package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/houzhh15/meethub/cmd/server/internal/metrics"
)

const (
	// maxSummaryInputWords bounds summarizer input; the model context is
	// limited and transcripts grow without bound during long meetings.
	maxSummaryInputWords = 1024

	// maxSentimentInputChars bounds sentiment input to the classifier window.
	maxSentimentInputChars = 512
)

// InferenceHTTP implements Summarizer and SentimentAnalyzer against an
// inference sidecar exposing summarization and sentiment endpoints.
type InferenceHTTP struct {
	apiURL     string
	httpClient *http.Client
}

// NewInferenceHTTP creates a client for the inference service at apiURL.
func NewInferenceHTTP(apiURL string, timeout time.Duration) *InferenceHTTP {
	return &InferenceHTTP{
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Summarize posts the transcript and derives word count, compression ratio
// and heuristic action items around the model summary.
func (c *InferenceHTTP) Summarize(ctx context.Context, text string) (*SummaryResult, error) {
	words := strings.Fields(text)
	if len(words) > maxSummaryInputWords {
		text = strings.Join(words[:maxSummaryInputWords], " ")
		words = words[:maxSummaryInputWords]
	}

	start := time.Now()
	var out struct {
		Summary string `json:"summary"`
	}
	if err := c.post(ctx, "/api/v1/summarize", map[string]string{"text": text}, &out); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	metrics.RecordCollaboratorDuration("summarizer", time.Since(start).Seconds())

	result := &SummaryResult{
		Summary:     out.Summary,
		ActionItems: ExtractActionItems(text),
		WordCount:   len(words),
	}
	if len(words) > 0 {
		result.SummaryRatio = float64(len(strings.Fields(out.Summary))) / float64(len(words))
	}
	return result, nil
}

// Analyze posts a fragment for sentiment classification.
func (c *InferenceHTTP) Analyze(ctx context.Context, text string) (*SentimentResult, error) {
	if len(text) > maxSentimentInputChars {
		// Back up to a rune boundary so the cut never ships a broken rune.
		cut := maxSentimentInputChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	start := time.Now()
	var out SentimentResult
	if err := c.post(ctx, "/api/v1/sentiment", map[string]string{"text": text}, &out); err != nil {
		return nil, fmt.Errorf("analyze sentiment: %w", err)
	}
	metrics.RecordCollaboratorDuration("sentiment", time.Since(start).Seconds())
	return &out, nil
}

// Ready probes the sidecar health endpoint with a short timeout.
func (c *InferenceHTTP) Ready() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *InferenceHTTP) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("inference returned status %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
