package facts

import (
	"strings"
	"unicode/utf8"
)

// Category tags a fact with the rule that selected it
type Category string

const (
	CategoryDanger   Category = "danger"
	CategoryFirstAid Category = "first_aid"
	CategoryHabitat  Category = "habitat"
	CategoryFallback Category = "fallback"
)

// Label returns the user-facing prefix for the category ("" for fallback)
func (c Category) Label() string {
	switch c {
	case CategoryDanger:
		return "Danger"
	case CategoryFirstAid:
		return "First Aid"
	case CategoryHabitat:
		return "Habitat"
	default:
		return ""
	}
}

// Sentinel fact lists returned instead of errors
const (
	NoFactsFound = "No facts found for this topic."
	FetchFailed  = "Could not fetch facts from Wikipedia."
)

const (
	// sentenceDelimiter is a heuristic splitter; abbreviations and lists
	// are over-segmented on purpose.
	sentenceDelimiter = ". "

	fallbackMinRunes = 40
	fallbackMax      = 2
)

var (
	habitatKeywords  = []string{"habitat", "range", "found in", "lives in", "native to", "distribution"}
	dangerKeywords   = []string{"dangerous", "venom", "poisonous", "attack", "threat", "aggressive"}
	negationKeywords = []string{"not", "no ", "isn't", "aren't", "non-venomous", "non-aggressive", "harmless", "rarely attack"}
	firstAidKeywords = []string{"first aid", "bite treatment", "if bitten", "antivenom", "envenomation"}
)

// Fact is a single sentence selected from an article
type Fact struct {
	Category Category `json:"category"`
	Sentence string   `json:"sentence"` // trimmed, without the terminating period
}

// String renders the fact the way it is shown to users
func (f Fact) String() string {
	if label := f.Category.Label(); label != "" {
		return label + ": " + f.Sentence + "."
	}
	return f.Sentence + "."
}

// scanState records which categories are already filled during the pass.
type scanState struct {
	danger   bool
	firstAid bool
	habitat  bool

	dangerFact   Fact
	firstAidFact Fact
	habitatFact  Fact
}

func (s *scanState) done(wantFirstAid bool) bool {
	return s.danger && s.habitat && (s.firstAid || !wantFirstAid)
}

// Extract returns the ordered user-facing facts for an article text.
// An empty result means nothing usable was found.
func Extract(text, label string) []string {
	found := ExtractFacts(text, label)
	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, f.String())
	}
	return out
}

// ExtractFacts selects at most one danger, first-aid and habitat sentence in
// a single forward pass. The first qualifying sentence of each category wins.
// When no category matches, up to two long sentences are returned instead.
func ExtractFacts(text, label string) []Fact {
	if strings.TrimSpace(text) == "" {
		return []Fact{}
	}

	sentences := SplitSentences(text)
	wantFirstAid := strings.Contains(strings.ToLower(label), "snake")

	var st scanState
	for _, s := range sentences {
		lower := strings.ToLower(s)

		if !st.danger && containsAny(lower, dangerKeywords) && !containsAny(lower, negationKeywords) {
			st.danger = true
			st.dangerFact = newFact(CategoryDanger, s)
		}

		if !st.habitat && containsAny(lower, habitatKeywords) {
			st.habitat = true
			st.habitatFact = newFact(CategoryHabitat, s)
		}

		if wantFirstAid && !st.firstAid && containsAny(lower, firstAidKeywords) {
			st.firstAid = true
			st.firstAidFact = newFact(CategoryFirstAid, s)
		}

		if st.done(wantFirstAid) {
			break
		}
	}

	ordered := make([]Fact, 0, 3)
	if st.danger {
		ordered = append(ordered, st.dangerFact)
	}
	if st.firstAid {
		ordered = append(ordered, st.firstAidFact)
	}
	if st.habitat {
		ordered = append(ordered, st.habitatFact)
	}
	if len(ordered) > 0 {
		return ordered
	}

	return fallback(sentences)
}

// SplitSentences splits text on ". " exactly; nothing else is treated as a
// sentence boundary.
func SplitSentences(text string) []string {
	return strings.Split(text, sentenceDelimiter)
}

func fallback(sentences []string) []Fact {
	out := make([]Fact, 0, fallbackMax)
	for _, s := range sentences {
		if utf8.RuneCountInString(strings.TrimSpace(s)) <= fallbackMinRunes {
			continue
		}
		out = append(out, newFact(CategoryFallback, s))
		if len(out) == fallbackMax {
			break
		}
	}
	return out
}

func newFact(c Category, sentence string) Fact {
	s := strings.TrimSpace(sentence)
	s = strings.TrimSuffix(s, ".")
	return Fact{Category: c, Sentence: s}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
