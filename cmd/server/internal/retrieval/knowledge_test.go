package retrieval

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/houzhh15/meethub/cmd/server/internal/ai"
)

type fakeSummarizer struct {
	summary string
	err     error
	lastIn  string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (*ai.SummaryResult, error) {
	f.lastIn = text
	if f.err != nil {
		return nil, f.err
	}
	return &ai.SummaryResult{Summary: f.summary}, nil
}

func (f *fakeSummarizer) Ready() bool { return true }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("kubernetes deployment rollout strategy")
	b := Fingerprint("kubernetes deployment rollout strategy")
	if a != b {
		t.Error("Fingerprint not deterministic for identical text")
	}
	if hammingDistance(a, b) != 0 {
		t.Error("hammingDistance of identical fingerprints != 0")
	}
	if hammingDistance(0, 0xFFFFFFFFFFFFFFFF) != 64 {
		t.Error("hammingDistance(0, all-ones) != 64")
	}
	if hammingDistance(0b1010, 0b0110) != 2 {
		t.Error("hammingDistance(1010, 0110) != 2")
	}
}

func TestExtractQuery(t *testing.T) {
	t.Run("top words by frequency, ties alphabetical", func(t *testing.T) {
		transcript := "kubernetes kubernetes kubernetes deployment deployment cluster scaling rollout"
		got := ExtractQuery(transcript)
		want := "kubernetes deployment cluster rollout scaling"
		if got != want {
			t.Errorf("ExtractQuery = %q, want %q", got, want)
		}
	})

	t.Run("stop words and short words excluded", func(t *testing.T) {
		got := ExtractQuery("the cat and the dog sat on monitoring infrastructure")
		if got != "infrastructure monitoring" {
			t.Errorf("ExtractQuery = %q", got)
		}
	})

	t.Run("empty transcript yields empty query", func(t *testing.T) {
		if got := ExtractQuery(""); got != "" {
			t.Errorf("ExtractQuery = %q, want empty", got)
		}
	})
}

func TestKnowledgeBaseQuery(t *testing.T) {
	t.Run("empty knowledge base returns nil", func(t *testing.T) {
		kb := NewKnowledgeBase(t.TempDir(), &fakeSummarizer{summary: "s"}, testLogger())
		insights, err := kb.Query(context.Background(), "some transcript about things", 3)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if insights != nil {
			t.Errorf("insights = %+v, want nil", insights)
		}
	})

	t.Run("exact-match passage is retrieved with contextual summary", func(t *testing.T) {
		summarizer := &fakeSummarizer{summary: "enhanced summary"}
		kb := NewKnowledgeBase(t.TempDir(), summarizer, testLogger())

		transcript := "kubernetes kubernetes kubernetes deployment deployment cluster scaling rollout"
		// Content identical to the extracted query fingerprints at distance 0.
		kb.Add("p1", "runbook.md", "kubernetes deployment cluster rollout scaling")

		insights, err := kb.Query(context.Background(), transcript, 3)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if insights == nil {
			t.Fatal("Query() = nil, want insights")
		}
		if insights.EnhancedSummary != "enhanced summary" {
			t.Errorf("EnhancedSummary = %q", insights.EnhancedSummary)
		}
		if len(insights.RelevantContext) != 1 || insights.ContextSources[0] != "runbook.md" {
			t.Errorf("insights = %+v", insights)
		}
	})

	t.Run("summarizer failure falls back to plain summary", func(t *testing.T) {
		// First call (contextual) fails, second (plain) succeeds.
		summarizer := &flakySummarizer{failures: 1, summary: "plain summary"}
		kb := NewKnowledgeBase(t.TempDir(), summarizer, testLogger())

		transcript := "kubernetes kubernetes kubernetes deployment deployment cluster scaling rollout"
		kb.Add("p1", "runbook.md", "kubernetes deployment cluster rollout scaling")

		insights, err := kb.Query(context.Background(), transcript, 3)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if insights.EnhancedSummary != "plain summary" {
			t.Errorf("EnhancedSummary = %q", insights.EnhancedSummary)
		}
	})
}

type flakySummarizer struct {
	failures int
	summary  string
}

func (f *flakySummarizer) Summarize(ctx context.Context, text string) (*ai.SummaryResult, error) {
	if f.failures > 0 {
		f.failures--
		return nil, context.DeadlineExceeded
	}
	return &ai.SummaryResult{Summary: f.summary}, nil
}

func (f *flakySummarizer) Ready() bool { return true }

func TestKnowledgeBasePersistence(t *testing.T) {
	dir := t.TempDir()
	summarizer := &fakeSummarizer{summary: "s"}

	kb := NewKnowledgeBase(dir, summarizer, testLogger())
	kb.Add("p1", "doc-a", "first passage content")
	kb.Add("p2", "doc-b", "second passage content")
	if err := kb.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded := NewKnowledgeBase(dir, summarizer, testLogger())
	if reloaded.Count() != 2 {
		t.Errorf("Count() after reload = %d, want 2", reloaded.Count())
	}
	if !reloaded.Ready() {
		t.Error("Ready() = false after reload")
	}
}

func TestKnowledgeBaseSeedFile(t *testing.T) {
	t.Run("loads yaml documents", func(t *testing.T) {
		dir := t.TempDir()
		seedPath := filepath.Join(dir, "seed.yaml")
		seed := `- source: handbook.md
  content: onboarding process for new engineers
- source: runbook.md
  content: incident response escalation policy
`
		if err := os.WriteFile(seedPath, []byte(seed), 0644); err != nil {
			t.Fatalf("write seed: %v", err)
		}

		kb := NewKnowledgeBase(dir, &fakeSummarizer{summary: "s"}, testLogger())
		if err := kb.LoadSeedFile(seedPath); err != nil {
			t.Fatalf("LoadSeedFile() error = %v", err)
		}
		if kb.Count() != 2 {
			t.Errorf("Count() = %d, want 2", kb.Count())
		}
	})

	t.Run("missing seed file is not an error", func(t *testing.T) {
		kb := NewKnowledgeBase(t.TempDir(), &fakeSummarizer{summary: "s"}, testLogger())
		if err := kb.LoadSeedFile("/does/not/exist.yaml"); err != nil {
			t.Errorf("LoadSeedFile() error = %v", err)
		}
	})

	t.Run("empty path is a no-op", func(t *testing.T) {
		kb := NewKnowledgeBase(t.TempDir(), &fakeSummarizer{summary: "s"}, testLogger())
		if err := kb.LoadSeedFile(""); err != nil {
			t.Errorf("LoadSeedFile() error = %v", err)
		}
	})
}
