package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/wildlens/internal/model"
)

var factIcons = []struct {
	prefix string
	icon   string
}{
	{"Danger:", "⚠️"},
	{"First Aid:", "🚑"},
	{"Habitat:", "🌳"},
}

// Decorate prefixes a rendered fact with the icon for its category
func Decorate(fact string) string {
	for _, fi := range factIcons {
		if strings.HasPrefix(fact, fi.prefix) {
			return fi.icon + " " + fact
		}
	}
	return fact
}

// Renderer writes predictions to files and terminals
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the prediction payload as indented JSON
func (r *Renderer) RenderJSON(pred *model.Prediction, path string) error {
	data, err := json.MarshalIndent(pred, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a human-readable report; source is the image path (may be empty)
func (r *Renderer) RenderMarkdown(pred *model.Prediction, source, path string) error {
	return writeFile(path, []byte(r.Markdown(pred, source)))
}

// Markdown formats a prediction as Markdown
func (r *Renderer) Markdown(pred *model.Prediction, source string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", pred.Prediction)
	fmt.Fprintf(&b, "- **Confidence:** %.2f%%\n", pred.Confidence)
	if pred.Classifier != "" {
		fmt.Fprintf(&b, "- **Classifier:** %s\n", pred.Classifier)
	}
	if source != "" {
		fmt.Fprintf(&b, "- **Image:** `%s`\n", source)
	}
	if pred.WikiLink != nil {
		fmt.Fprintf(&b, "- **Wikipedia:** [%s](%s)\n", pred.Prediction, *pred.WikiLink)
	}

	b.WriteString("\n## Facts\n\n")
	for _, fact := range pred.Facts {
		fmt.Fprintf(&b, "- %s\n", Decorate(fact))
	}

	return b.String()
}

// WriteFacts prints a fact lookup for the terminal
func (r *Renderer) WriteFacts(w io.Writer, res model.FactsResult) {
	fmt.Fprintf(w, "%s\n", model.TitleCase(res.Label))
	for _, fact := range res.Facts {
		fmt.Fprintf(w, "  %s\n", Decorate(fact))
	}
	if res.HasLink() {
		fmt.Fprintf(w, "  🔗 %s\n", *res.WikiLink)
	}
}

// WritePrediction prints a prediction for the terminal
func (r *Renderer) WritePrediction(w io.Writer, pred *model.Prediction) {
	fmt.Fprintf(w, "%s (%.2f%%)\n", pred.Prediction, pred.Confidence)
	for _, fact := range pred.Facts {
		fmt.Fprintf(w, "  %s\n", Decorate(fact))
	}
	if pred.WikiLink != nil {
		fmt.Fprintf(w, "  🔗 %s\n", *pred.WikiLink)
	}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
