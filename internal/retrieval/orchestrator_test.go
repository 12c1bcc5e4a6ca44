package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadline-ai/recall/internal/emotion"
	"github.com/threadline-ai/recall/internal/model"
	"github.com/threadline-ai/recall/internal/temporal"
	"github.com/threadline-ai/recall/internal/vectorstore"
	"github.com/threadline-ai/recall/internal/vectorstore/storetest"
)

type spyStore struct {
	*storetest.Fake
	readCalls int
	simCalls  int
}

func (s *spyStore) ReadByFilter(ctx context.Context, f vectorstore.Filters, order vectorstore.Order, limit int) ([]model.MemoryRecord, error) {
	s.readCalls++
	return s.Fake.ReadByFilter(ctx, f, order, limit)
}

func (s *spyStore) SimilaritySearch(ctx context.Context, f vectorstore.Filters, target model.VectorName, vec []float32, topK int) ([]vectorstore.SearchHit, error) {
	s.simCalls++
	return s.Fake.SimilaritySearch(ctx, f, target, vec, topK)
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

func newOrchestrator(store vectorstore.Store, emb *fakeEmbedder, now time.Time) *Orchestrator {
	planner := temporal.NewPlanner(4*time.Hour, 24*time.Hour)
	resolver := emotion.NewResolver(nil, 0.5, zerolog.Nop())
	return NewOrchestrator(store, planner, emb, resolver, zerolog.Nop()).
		WithClock(func() time.Time { return now })
}

func seedTurn(f *storetest.Fake, id, content string, age time.Duration, now time.Time, contentVec []float32) {
	f.Seed(model.MemoryRecord{
		ID:               id,
		TenantID:         "bot-a",
		UserID:           "user-1",
		Content:          content,
		Role:             model.RoleUser,
		Tier:             model.TierWorking,
		Timestamp:        now.Add(-age),
		EmotionalContext: "joy",
		Vectors:          model.NamedVectors{model.VectorContent: contentVec},
	})
}

func TestRetrieveContext_TemporalNeverSearchesSimilarity(t *testing.T) {
	now := time.Now()
	spy := &spyStore{Fake: storetest.New()}
	seedTurn(spy.Fake, "a", "good morning", 5*time.Hour, now, nil)
	seedTurn(spy.Fake, "b", "how are you", 3*time.Hour, now, nil)
	seedTurn(spy.Fake, "c", "tell me a story", 1*time.Hour, now, nil)

	emb := &fakeEmbedder{vec: []float32{1, 0}}
	o := newOrchestrator(spy, emb, now)

	got, err := o.RetrieveContext(context.Background(), "bot-a", "user-1", "what was the first thing I said?", 10)
	require.NoError(t, err)

	assert.Zero(t, spy.simCalls, "temporal path must not run similarity search")
	assert.Zero(t, emb.calls, "temporal path must not embed the query")
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Record.ID, "oldest first")
	require.NotNil(t, got[0].TemporalRank)
	assert.Equal(t, 1, *got[0].TemporalRank)
	assert.Nil(t, got[0].SimilarityScore)
}

func TestRetrieveContext_SessionWindowRestrictsResults(t *testing.T) {
	now := time.Now()
	spy := &spyStore{Fake: storetest.New()}
	seedTurn(spy.Fake, "old", "yesterday's talk", 20*time.Hour, now, nil)
	seedTurn(spy.Fake, "new", "session opener", 2*time.Hour, now, nil)

	o := newOrchestrator(spy, &fakeEmbedder{vec: []float32{1}}, now)
	got, err := o.RetrieveContext(context.Background(), "bot-a", "user-1", "first thing I said today", 10)
	require.NoError(t, err)

	require.Len(t, got, 1, "4h session window excludes the older record")
	assert.Equal(t, "new", got[0].Record.ID)
}

func TestRetrieveContext_SemanticPath(t *testing.T) {
	now := time.Now()
	spy := &spyStore{Fake: storetest.New()}
	seedTurn(spy.Fake, "dog", "my dog is called rex", time.Hour, now, []float32{1, 0})
	seedTurn(spy.Fake, "food", "I love pasta", time.Hour, now, []float32{0, 1})

	emb := &fakeEmbedder{vec: []float32{1, 0}}
	o := newOrchestrator(spy, emb, now)

	got, err := o.RetrieveContext(context.Background(), "bot-a", "user-1", "tell me about my pet", 5)
	require.NoError(t, err)

	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, 1, spy.simCalls)
	assert.Zero(t, spy.readCalls, "semantic path must not scroll chronologically")
	require.Len(t, got, 2)
	assert.Equal(t, "dog", got[0].Record.ID, "nearest first")
	require.NotNil(t, got[0].SimilarityScore)
	assert.Nil(t, got[0].TemporalRank)
	assert.Equal(t, "joy", got[0].Emotion.Label)
}

func TestRetrieveContext_EmbeddingFailureFailsSemanticPath(t *testing.T) {
	o := newOrchestrator(&spyStore{Fake: storetest.New()}, &fakeEmbedder{err: errors.New("model offline")}, time.Now())

	_, err := o.RetrieveContext(context.Background(), "bot-a", "user-1", "tell me about my pet", 5)
	assert.ErrorIs(t, err, model.ErrEmbeddingGeneration)
}

func TestRetrieveContext_StoreOutageDegradesToEmpty(t *testing.T) {
	now := time.Now()
	fake := storetest.New()
	fake.FailReads = true
	o := newOrchestrator(&spyStore{Fake: fake}, &fakeEmbedder{vec: []float32{1}}, now)
	ctx := context.Background()

	got, err := o.RetrieveContext(ctx, "bot-a", "user-1", "the last thing we discussed", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = o.RetrieveContext(ctx, "bot-a", "user-1", "tell me about my pet", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	hist, err := o.GetRecentHistory(ctx, "bot-a", "user-1", 24*time.Hour, 50, false)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestRetrieveContext_RequiresIdentity(t *testing.T) {
	o := newOrchestrator(&spyStore{Fake: storetest.New()}, &fakeEmbedder{vec: []float32{1}}, time.Now())

	_, err := o.RetrieveContext(context.Background(), "", "user-1", "anything", 5)
	assert.ErrorIs(t, err, model.ErrIsolationViolation)

	_, err = o.GetRecentHistory(context.Background(), "bot-a", "", time.Hour, 5, false)
	assert.ErrorIs(t, err, model.ErrIsolationViolation)
}

func TestGetRecentHistory_ChronologicalWindow(t *testing.T) {
	now := time.Now()
	spy := &spyStore{Fake: storetest.New()}
	seedTurn(spy.Fake, "old", "outside window", 30*time.Hour, now, nil)
	seedTurn(spy.Fake, "a", "earlier", 5*time.Hour, now, nil)
	seedTurn(spy.Fake, "b", "later", 1*time.Hour, now, nil)

	o := newOrchestrator(spy, &fakeEmbedder{vec: []float32{1}}, now)
	got, err := o.GetRecentHistory(context.Background(), "bot-a", "user-1", 24*time.Hour, 50, false)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestGetRecentHistory_ExpiredOnlyWhenRequested(t *testing.T) {
	now := time.Now()
	spy := &spyStore{Fake: storetest.New()}
	seedTurn(spy.Fake, "live", "still relevant", time.Hour, now, nil)
	spy.Fake.Seed(model.MemoryRecord{
		ID:        "gone",
		TenantID:  "bot-a",
		UserID:    "user-1",
		Content:   "aged out",
		Role:      model.RoleUser,
		Tier:      model.TierExpired,
		Timestamp: now.Add(-2 * time.Hour),
	})

	o := newOrchestrator(spy, &fakeEmbedder{vec: []float32{1}}, now)
	ctx := context.Background()

	got, err := o.GetRecentHistory(ctx, "bot-a", "user-1", 24*time.Hour, 50, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "live", got[0].ID)

	got, err = o.GetRecentHistory(ctx, "bot-a", "user-1", 24*time.Hour, 50, true)
	require.NoError(t, err)
	require.Len(t, got, 2, "audit reads see expired records")
}

// Stored labels that name a channel rather than an emotion must resolve to
// the unresolved sentinel on the way out, on both retrieval paths.
func TestRetrieveContext_ContaminatedStoredLabelResolvesUnresolved(t *testing.T) {
	now := time.Now()
	spy := &spyStore{Fake: storetest.New()}
	spy.Fake.Seed(model.MemoryRecord{
		ID:               "tainted",
		TenantID:         "bot-a",
		UserID:           "user-1",
		Content:          "we talked about the weather",
		Role:             model.RoleUser,
		Tier:             model.TierWorking,
		Timestamp:        now.Add(-time.Hour),
		EmotionalContext: "general_conversation",
		Vectors:          model.NamedVectors{model.VectorContent: []float32{1, 0}},
	})

	o := newOrchestrator(spy, &fakeEmbedder{vec: []float32{1, 0}}, now)
	ctx := context.Background()

	got, err := o.RetrieveContext(ctx, "bot-a", "user-1", "the last thing we discussed", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.EmotionUnresolved, got[0].Emotion.Label)

	got, err = o.RetrieveContext(ctx, "bot-a", "user-1", "tell me about the weather", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].SimilarityScore)
	assert.Equal(t, model.EmotionUnresolved, got[0].Emotion.Label)
}

func TestRetrieveContext_SemanticTieBreaksOnSignificance(t *testing.T) {
	now := time.Now()
	spy := &spyStore{Fake: storetest.New()}
	for _, rec := range []model.MemoryRecord{
		{ID: "minor", SignificanceScore: 0.2},
		{ID: "major", SignificanceScore: 0.9},
	} {
		rec.TenantID = "bot-a"
		rec.UserID = "user-1"
		rec.Content = "identical vector " + rec.ID
		rec.Role = model.RoleUser
		rec.Tier = model.TierWorking
		rec.Timestamp = now.Add(-time.Hour)
		rec.Vectors = model.NamedVectors{model.VectorContent: []float32{1, 0}}
		spy.Fake.Seed(rec)
	}

	o := newOrchestrator(spy, &fakeEmbedder{vec: []float32{1, 0}}, now)
	got, err := o.RetrieveContext(context.Background(), "bot-a", "user-1", "tell me about my pet", 5)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "major", got[0].Record.ID, "equal scores rank by significance")
}
