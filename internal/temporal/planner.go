// Package temporal interprets retrieval queries for chronological intent and
// decides ordering, windowing and result cardinality.
package temporal

import (
	"strings"
	"time"

	"github.com/threadline-ai/recall/internal/vectorstore"
)

// firstCap bounds "first"-family queries: they ask for precise recall of a
// conversation's opening, not broad context.
const firstCap = 3

var (
	firstKeywords = []string{"first", "earliest", "initial", "began", "started", "opening"}
	lastKeywords  = []string{"last", "recent", "just", "previous", "earlier"}

	// sessionMarkers narrow the window to the active session: "today" means
	// "this conversation", not the calendar day.
	sessionMarkers = []string{"today", "this morning", "this afternoon"}
)

// Plan is the planner's decision for one query.
type Plan struct {
	// Temporal is false when no keyword matched; the caller should fall back
	// to pure semantic search and ignore the other fields.
	Temporal  bool
	Direction vectorstore.Order
	Window    time.Duration
	Limit     int
}

// Planner holds the configured window sizes.
type Planner struct {
	sessionWindow time.Duration
	dayWindow     time.Duration
}

func NewPlanner(sessionWindow, dayWindow time.Duration) *Planner {
	if sessionWindow <= 0 {
		sessionWindow = 4 * time.Hour
	}
	if dayWindow <= 0 {
		dayWindow = 24 * time.Hour
	}
	return &Planner{sessionWindow: sessionWindow, dayWindow: dayWindow}
}

// Plan inspects the query text for temporal keywords.
//
// When both families appear, the "first" family wins. That is a tie-break
// convention, not inferred intent: ascending with a tight cap is the safer
// reading of a mixed query.
func (p *Planner) Plan(queryText string, defaultLimit int) Plan {
	tokens := tokenize(queryText)
	lowered := strings.ToLower(queryText)

	hasFirst := containsAny(tokens, firstKeywords)
	hasLast := containsAny(tokens, lastKeywords)
	if !hasFirst && !hasLast {
		return Plan{Temporal: false}
	}

	window := p.dayWindow
	for _, marker := range sessionMarkers {
		if strings.Contains(lowered, marker) {
			window = p.sessionWindow
			break
		}
	}

	if hasFirst {
		limit := firstCap
		if defaultLimit > 0 && defaultLimit < limit {
			limit = defaultLimit
		}
		return Plan{Temporal: true, Direction: vectorstore.OrderAsc, Window: window, Limit: limit}
	}

	limit := defaultLimit
	if limit <= 0 {
		limit = 10
	}
	return Plan{Temporal: true, Direction: vectorstore.OrderDesc, Window: window, Limit: limit}
}

// tokenize lowercases and splits on non-letter runes so keyword matching is
// whole-word: "lastly" or "firstname" must not trigger temporal intent.
func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out[b.String()] = true
			b.Reset()
		}
	}
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\'' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

func containsAny(tokens map[string]bool, keywords []string) bool {
	for _, kw := range keywords {
		if tokens[kw] {
			return true
		}
	}
	return false
}
