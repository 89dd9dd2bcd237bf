// Package retrieval implements the knowledge-retrieval collaborator: a local
// knowledge base queried with keywords extracted from the running transcript,
// ranked by simhash fingerprint distance.
package retrieval

import (
	"sort"
	"strings"

	"github.com/go-dedup/simhash"
)

// hammingThreshold 定义相似度阈值：汉明距离<=28视为相关
const hammingThreshold = 28

// textFeatureSet implements simhash.FeatureSet for meeting text. Features are
// lowercased word unigrams plus word bigrams; bigrams capture enough phrase
// context to separate passages that share vocabulary.
type textFeatureSet struct {
	text string
}

func (t textFeatureSet) GetFeatures() []simhash.Feature {
	words := tokenize(t.text)
	features := make([]simhash.Feature, 0, len(words)*2)
	for i, w := range words {
		features = append(features, simhash.NewFeature([]byte(w)))
		if i+1 < len(words) {
			features = append(features, simhash.NewFeature([]byte(w+" "+words[i+1])))
		}
	}
	return features
}

// Fingerprint computes the 64-bit simhash fingerprint of a text.
func Fingerprint(text string) uint64 {
	sh := simhash.NewSimhash()
	return sh.GetSimhash(textFeatureSet{text: text})
}

// hammingDistance counts differing bits between two fingerprints.
func hammingDistance(a, b uint64) int {
	x := a ^ b
	count := 0
	for x != 0 {
		count++
		x &= x - 1
	}
	return count
}

var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "a": true, "an": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "this": true,
	"that": true, "it": true, "as": true, "we": true, "you": true,
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Trim(f, ".,!?;:()[]\"'")
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// ExtractQuery builds a retrieval query from a transcript: the five most
// frequent words longer than three characters, stop words excluded.
func ExtractQuery(transcript string) string {
	freq := make(map[string]int)
	for _, w := range tokenize(transcript) {
		if len(w) > 3 && !stopWords[w] {
			freq[w]++
		}
	}

	type wordCount struct {
		word  string
		count int
	}
	counts := make([]wordCount, 0, len(freq))
	for w, c := range freq {
		counts = append(counts, wordCount{w, c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].word < counts[j].word
	})

	top := make([]string, 0, 5)
	for i := 0; i < len(counts) && i < 5; i++ {
		top = append(top, counts[i].word)
	}
	return strings.Join(top, " ")
}
