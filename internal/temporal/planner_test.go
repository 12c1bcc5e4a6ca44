package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/threadline-ai/recall/internal/vectorstore"
)

func newTestPlanner() *Planner {
	return NewPlanner(4*time.Hour, 24*time.Hour)
}

func TestPlan_FirstFamily(t *testing.T) {
	p := newTestPlanner()

	plan := p.Plan("what was the first thing I said?", 10)
	assert.True(t, plan.Temporal)
	assert.Equal(t, vectorstore.OrderAsc, plan.Direction)
	assert.Equal(t, 3, plan.Limit, "first queries are tightly capped")
	assert.Equal(t, 24*time.Hour, plan.Window)

	for _, q := range []string{
		"when the conversation began",
		"my initial question",
		"the earliest message",
		"how we started",
		"the opening exchange",
	} {
		assert.True(t, p.Plan(q, 10).Temporal, q)
		assert.Equal(t, vectorstore.OrderAsc, p.Plan(q, 10).Direction, q)
	}
}

func TestPlan_LastFamily(t *testing.T) {
	p := newTestPlanner()

	plan := p.Plan("what did I just say?", 10)
	assert.True(t, plan.Temporal)
	assert.Equal(t, vectorstore.OrderDesc, plan.Direction)
	assert.Equal(t, 10, plan.Limit, "last queries keep the caller's limit")
	assert.Equal(t, 24*time.Hour, plan.Window)

	for _, q := range []string{
		"the last thing you told me",
		"our recent discussion",
		"the previous topic",
		"what we talked about earlier",
	} {
		assert.Equal(t, vectorstore.OrderDesc, p.Plan(q, 10).Direction, q)
	}
}

func TestPlan_SessionMarkersNarrowWindow(t *testing.T) {
	p := newTestPlanner()

	plan := p.Plan("what was the first thing I said today?", 10)
	assert.Equal(t, vectorstore.OrderAsc, plan.Direction)
	assert.Equal(t, 4*time.Hour, plan.Window, "today means the active session")
	assert.Equal(t, 3, plan.Limit)

	// A session marker alone carries no temporal intent.
	plan = p.Plan("what did I say this morning?", 5)
	assert.False(t, plan.Temporal)

	plan = p.Plan("recent messages from this afternoon", 5)
	assert.Equal(t, 4*time.Hour, plan.Window)
}

func TestPlan_FirstBeatsLast(t *testing.T) {
	p := newTestPlanner()

	plan := p.Plan("the first and last things we discussed", 10)
	assert.True(t, plan.Temporal)
	assert.Equal(t, vectorstore.OrderAsc, plan.Direction)
	assert.Equal(t, 3, plan.Limit)
}

func TestPlan_NoTemporalIntent(t *testing.T) {
	p := newTestPlanner()

	for _, q := range []string{
		"tell me about my dog",
		"what do I like to eat",
		"",
		"my firstname is ada", // substring of a keyword must not match
		"lastly, the weather",
	} {
		assert.False(t, p.Plan(q, 10).Temporal, q)
	}
}

func TestPlan_LimitFloors(t *testing.T) {
	p := newTestPlanner()

	// A caller limit below the first-cap tightens the cap further.
	plan := p.Plan("the first message", 1)
	assert.Equal(t, 1, plan.Limit)

	// A non-positive caller limit on the last path gets a sane default.
	plan = p.Plan("recent messages", 0)
	assert.Equal(t, 10, plan.Limit)
}
