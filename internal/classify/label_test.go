package classify

import (
	"errors"
	"testing"
)

func TestNormalizeLabel(t *testing.T) {
	tests := map[string]string{
		"tiger_cat":          "tiger cat",
		"King_Cobra":         "king cobra",
		"  Golden Retriever ": "golden retriever",
		`"Red fox."`:         "red fox",
		"great__white_shark": "great white shark",
		"":                   "",
	}

	for in, want := range tests {
		if got := NormalizeLabel(in); got != want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLabelAnswer(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		label      string
		confidence float64
	}{
		{"plain json", `{"label": "Snow leopard", "confidence": 0.87}`, "snow leopard", 87},
		{"percentage", `{"label": "tiger", "confidence": 93}`, "tiger", 93},
		{"code fence", "```json\n{\"label\": \"barn owl\", \"confidence\": 0.5}\n```", "barn owl", 50},
		{"prose around", `Sure! {"label":"okapi","confidence":1} Hope that helps.`, "okapi", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseLabelAnswer(tt.text)
			if err != nil {
				t.Fatalf("parseLabelAnswer failed: %v", err)
			}
			if result.Label != tt.label {
				t.Errorf("Expected label %q, got %q", tt.label, result.Label)
			}
			if result.Confidence != tt.confidence {
				t.Errorf("Expected confidence %v, got %v", tt.confidence, result.Confidence)
			}
		})
	}
}

func TestParseLabelAnswer_Errors(t *testing.T) {
	if _, err := parseLabelAnswer("I think it's a cat"); !errors.Is(err, ErrNoLabel) {
		t.Errorf("Expected ErrNoLabel without JSON, got %v", err)
	}
	if _, err := parseLabelAnswer(`{"label": "", "confidence": 0.2}`); !errors.Is(err, ErrNoLabel) {
		t.Errorf("Expected ErrNoLabel for empty label, got %v", err)
	}
	if _, err := parseLabelAnswer(`{"label": }`); err == nil {
		t.Error("Expected decode error for malformed JSON")
	}
}
