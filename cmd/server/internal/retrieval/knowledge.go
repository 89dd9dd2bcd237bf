package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/houzhh15/meethub/cmd/server/internal/ai"
	"github.com/houzhh15/meethub/cmd/server/internal/metrics"
)

// nearDuplicateDistance: passages within this hamming distance of an already
// selected passage are suppressed from query results.
const nearDuplicateDistance = 10

// Insights is the retrieval-augmented result broadcast to a meeting.
type Insights struct {
	EnhancedSummary string   `json:"enhanced_summary"`
	RelevantContext []string `json:"relevant_context"`
	ContextSources  []string `json:"context_sources"`
}

// Engine is the knowledge-retrieval collaborator. Query returns (nil, nil)
// when the knowledge base is empty or holds nothing relevant — absence of
// insight is a degraded response, never an error.
type Engine interface {
	Query(ctx context.Context, transcript string, k int) (*Insights, error)
	Ready() bool
}

// Passage is one indexed knowledge base entry.
type Passage struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Content     string `json:"content"`
	Fingerprint uint64 `json:"fingerprint"`
	UpdatedAt   string `json:"updated_at"`
}

// KnowledgeBase implements Engine over an in-memory passage index persisted
// as JSON, optionally seeded from a YAML document file at startup.
type KnowledgeBase struct {
	mu       sync.RWMutex
	passages map[string]*Passage
	filePath string

	summarizer ai.Summarizer
	log        *slog.Logger
}

// NewKnowledgeBase loads (or creates) the index under dataDir. summarizer is
// used to produce the enhanced contextual summary for query results.
func NewKnowledgeBase(dataDir string, summarizer ai.Summarizer, log *slog.Logger) *KnowledgeBase {
	kb := &KnowledgeBase{
		passages:   make(map[string]*Passage),
		filePath:   filepath.Join(dataDir, "knowledge_index.json"),
		summarizer: summarizer,
		log:        log.With("component", "retrieval"),
	}
	if err := kb.load(); err != nil {
		kb.log.Warn("failed to load knowledge index, starting empty", "error", err)
	}
	return kb
}

type seedDocument struct {
	Source  string `yaml:"source"`
	Content string `yaml:"content"`
}

// LoadSeedFile indexes documents from a YAML seed file. Missing file is not
// an error; the knowledge base simply stays as loaded.
func (kb *KnowledgeBase) LoadSeedFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read seed file: %w", err)
	}
	var docs []seedDocument
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	for i, doc := range docs {
		kb.Add(fmt.Sprintf("seed_%03d", i), doc.Source, doc.Content)
	}
	kb.log.Info("seeded knowledge base", "documents", len(docs))
	return kb.Save()
}

// Add indexes one passage, replacing any existing passage with the same ID.
func (kb *KnowledgeBase) Add(id, source, content string) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.passages[id] = &Passage{
		ID:          id,
		Source:      source,
		Content:     content,
		Fingerprint: Fingerprint(content),
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}

// Count returns the number of indexed passages.
func (kb *KnowledgeBase) Count() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.passages)
}

// Ready reports whether the knowledge base holds anything to retrieve from.
func (kb *KnowledgeBase) Ready() bool {
	return kb.Count() > 0
}

// Query extracts keywords from the transcript, ranks passages by fingerprint
// distance and returns the top k with a contextual summary. Near-duplicate
// passages are collapsed to the closest match.
func (kb *KnowledgeBase) Query(ctx context.Context, transcript string, k int) (*Insights, error) {
	if !kb.Ready() {
		return nil, nil
	}
	query := ExtractQuery(transcript)
	if query == "" {
		return nil, nil
	}
	start := time.Now()

	queryFP := Fingerprint(query)

	type scored struct {
		passage  *Passage
		distance int
	}
	kb.mu.RLock()
	candidates := make([]scored, 0, len(kb.passages))
	for _, p := range kb.passages {
		d := hammingDistance(queryFP, p.Fingerprint)
		if d <= hammingThreshold {
			candidates = append(candidates, scored{p, d})
		}
	}
	kb.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })

	var selected []*Passage
	for _, c := range candidates {
		if len(selected) == k {
			break
		}
		dup := false
		for _, s := range selected {
			if hammingDistance(c.passage.Fingerprint, s.Fingerprint) <= nearDuplicateDistance {
				dup = true
				break
			}
		}
		if !dup {
			selected = append(selected, c.passage)
		}
	}

	contents := make([]string, len(selected))
	sources := make([]string, len(selected))
	for i, p := range selected {
		contents[i] = p.Content
		sources[i] = p.Source
	}

	enhanced, err := kb.contextualSummary(ctx, transcript, strings.Join(contents, "\n"))
	if err != nil {
		return nil, fmt.Errorf("retrieval query: %w", err)
	}

	metrics.RecordCollaboratorDuration("retrieval", time.Since(start).Seconds())
	return &Insights{
		EnhancedSummary: enhanced,
		RelevantContext: contents,
		ContextSources:  sources,
	}, nil
}

// contextualSummary summarizes the transcript together with retrieved
// context, falling back to a plain transcript summary if that fails.
func (kb *KnowledgeBase) contextualSummary(ctx context.Context, transcript, retrieved string) (string, error) {
	combined := "Context: " + retrieved + "\n\nCurrent Meeting: " + transcript
	result, err := kb.summarizer.Summarize(ctx, combined)
	if err == nil {
		return result.Summary, nil
	}
	kb.log.Warn("contextual summary failed, falling back to plain summary", "error", err)
	result, err = kb.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return "", err
	}
	return result.Summary, nil
}

// load reads the persisted index into memory.
func (kb *KnowledgeBase) load() error {
	data, err := os.ReadFile(kb.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read index file: %w", err)
	}
	var passages []*Passage
	if err := json.Unmarshal(data, &passages); err != nil {
		return fmt.Errorf("unmarshal index: %w", err)
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.passages = make(map[string]*Passage, len(passages))
	for _, p := range passages {
		kb.passages[p.ID] = p
	}
	kb.log.Info("loaded knowledge index", "passages", len(passages))
	return nil
}

// Save persists the index to its JSON file, creating directories as needed.
func (kb *KnowledgeBase) Save() error {
	kb.mu.RLock()
	passages := make([]*Passage, 0, len(kb.passages))
	for _, p := range kb.passages {
		passages = append(passages, p)
	}
	kb.mu.RUnlock()

	sort.Slice(passages, func(i, j int) bool { return passages[i].ID < passages[j].ID })

	data, err := json.MarshalIndent(passages, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(kb.filePath), 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	if err := os.WriteFile(kb.filePath, data, 0644); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	return nil
}
