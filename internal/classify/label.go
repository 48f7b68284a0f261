package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizeLabel lower-cases a raw model label and turns ImageNet-style
// identifiers such as "tiger_cat" into search-friendly text.
func NormalizeLabel(raw string) string {
	label := strings.ReplaceAll(raw, "_", " ")
	label = strings.Trim(label, " \t\r\n\"'`.")
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

const classificationPrompt = `Identify the animal in this image.
Reply with a single JSON object and nothing else:
{"label": "<common English name of the animal>", "confidence": <number between 0 and 1>}
If no animal is visible, use the most prominent object as the label.`

const systemPrompt = "You are an image classifier for a wildlife identification app. You answer with strict JSON."

type labelAnswer struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// parseLabelAnswer extracts the JSON answer from model output, tolerating code fences and prose around it
func parseLabelAnswer(text string) (*Result, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in %q", ErrNoLabel, truncate(text, 80))
	}

	var answer labelAnswer
	if err := json.Unmarshal([]byte(text[start:end+1]), &answer); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}

	label := NormalizeLabel(answer.Label)
	if label == "" {
		return nil, ErrNoLabel
	}

	return &Result{Label: label, Confidence: toPercent(answer.Confidence)}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
