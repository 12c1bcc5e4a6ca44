package embeddings

import (
	"fmt"
	"sort"
	"strings"

	"github.com/threadline-ai/recall/internal/model"
)

// Signals carries the write-time context used to derive facet texts beyond
// the raw content: the resolved emotion and any extracted concepts.
type Signals struct {
	Emotion  model.EmotionContext
	Concepts []string
}

// facetTexts derives the text embedded for each of the seven named vectors.
// Every facet must yield non-empty text so that no vector is silently
// skipped.
func facetTexts(rec *model.MemoryRecord, sig Signals) map[model.VectorName]string {
	content := strings.TrimSpace(rec.Content)

	concepts := sig.Concepts
	if len(concepts) == 0 {
		concepts = ExtractConcepts(content, 8)
	}
	conceptLine := strings.Join(concepts, " ")
	if conceptLine == "" {
		conceptLine = content
	}

	emotionLabel := sig.Emotion.Label
	if emotionLabel == "" || emotionLabel == model.EmotionUnresolved {
		emotionLabel = "neutral"
	}

	return map[model.VectorName]string{
		model.VectorContent: content,
		model.VectorEmotion: fmt.Sprintf("emotion %s intensity %.2f: %s",
			emotionLabel, sig.Emotion.Intensity, content),
		model.VectorSemantic: "concepts: " + conceptLine,
		model.VectorRelationship: fmt.Sprintf("%s speaking to %s: %s",
			rec.Role, counterpart(rec.Role), content),
		model.VectorPersonality: fmt.Sprintf("expressive style of %s turn, tone %s: %s",
			rec.Role, emotionLabel, content),
		model.VectorInteraction: fmt.Sprintf("interaction %s, %s: %s",
			utteranceKind(content), lengthBand(content), content),
		model.VectorTemporal: fmt.Sprintf("on %s %s: %s",
			strings.ToLower(rec.Timestamp.Weekday().String()), dayPart(rec.Timestamp.Hour()), content),
	}
}

func counterpart(r model.Role) model.Role {
	if r == model.RoleUser {
		return model.RoleAssistant
	}
	return model.RoleUser
}

func utteranceKind(content string) string {
	switch {
	case strings.HasSuffix(content, "?"):
		return "question"
	case strings.HasSuffix(content, "!"):
		return "exclamation"
	default:
		return "statement"
	}
}

func lengthBand(content string) string {
	n := len(strings.Fields(content))
	switch {
	case n <= 8:
		return "short"
	case n <= 40:
		return "medium"
	default:
		return "long"
	}
}

func dayPart(hour int) string {
	switch {
	case hour < 6:
		return "night"
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "had": {}, "has": {},
	"have": {}, "he": {}, "her": {}, "his": {}, "i": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "just": {}, "me": {}, "my": {}, "not": {}, "of": {},
	"on": {}, "or": {}, "she": {}, "so": {}, "that": {}, "the": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "we": {}, "were": {},
	"what": {}, "with": {}, "you": {}, "your": {},
}

// ExtractConcepts returns up to max distinct salient terms from content,
// most frequent first, ties broken alphabetically for determinism.
func ExtractConcepts(content string, max int) []string {
	counts := map[string]int{}
	for _, raw := range strings.Fields(strings.ToLower(content)) {
		word := strings.Trim(raw, ".,!?;:'\"()[]")
		if len(word) < 3 {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		counts[word]++
	}
	terms := make([]string, 0, len(counts))
	for w := range counts {
		terms = append(terms, w)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > max {
		terms = terms[:max]
	}
	return terms
}
