package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Prediction is the payload returned to presentation layers
type Prediction struct {
	Prediction string   `json:"prediction"`          // Title-cased label, e.g. "King Cobra"
	Confidence float64  `json:"confidence"`          // Percentage, 0..100
	Facts      []string `json:"facts"`               // Ordered facts or a sentinel message
	WikiLink   *string  `json:"wiki_link"`           // null when no article was found
	Classifier string   `json:"classifier,omitempty"` // Backend that produced the label
}

// FactsResult is the outcome of a fact lookup for a single label
type FactsResult struct {
	Label    string   `json:"label"`
	Facts    []string `json:"facts"`
	WikiLink *string  `json:"wiki_link"`
}

// HasLink reports whether an article link is present
func (r FactsResult) HasLink() bool {
	return r.WikiLink != nil && *r.WikiLink != ""
}

// TitleCase formats a normalized label for display
func TitleCase(label string) string {
	return cases.Title(language.English).String(strings.TrimSpace(label))
}
