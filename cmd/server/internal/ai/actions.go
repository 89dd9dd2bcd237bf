package ai

import (
	"strings"
)

// actionIndicators are phrases that mark a sentence as a likely action item.
var actionIndicators = []string{
	"need to", "should", "will", "must", "action item",
	"todo", "follow up", "assign", "schedule", "deadline",
}

const (
	minActionItemLen = 10
	maxActionItems   = 10
)

// ExtractActionItems pulls likely action items out of a transcript using
// keyword heuristics. Sentences shorter than minActionItemLen after cleanup
// are discarded; at most maxActionItems are returned.
func ExtractActionItems(text string) []string {
	var items []string
	for _, sentence := range strings.Split(text, ".") {
		lower := strings.ToLower(strings.TrimSpace(sentence))
		matched := false
		for _, indicator := range actionIndicators {
			if strings.Contains(lower, indicator) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		clean := strings.Trim(lower, " .,!?")
		if len(clean) <= minActionItemLen {
			continue
		}
		items = append(items, capitalize(clean))
		if len(items) == maxActionItems {
			break
		}
	}
	return items
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
