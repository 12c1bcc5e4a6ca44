package embeddings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadline-ai/recall/internal/model"
)

// fakeProvider embeds deterministically and can fail calls whose text
// contains failOn.
type fakeProvider struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (f *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("provider down")
	}
	return []float32{float32(len(text)), 1, 2}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testRecord() *model.MemoryRecord {
	return &model.MemoryRecord{
		ID:        "rec-1",
		TenantID:  "bot-a",
		UserID:    "u-1",
		Content:   "I finally finished the marathon today!",
		Role:      model.RoleUser,
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func fastConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		CallTimeout:    time.Second,
	}
}

func TestGenerator_ProducesAllSevenVectors(t *testing.T) {
	p := &fakeProvider{}
	g := NewGenerator(p, fastConfig(), zerolog.Nop())

	vecs, err := g.Generate(context.Background(), testRecord(), Signals{})
	require.NoError(t, err)
	require.NoError(t, vecs.Validate())
	assert.Len(t, vecs, 7)
	assert.Equal(t, 7, p.callCount())
}

func TestGenerator_SingleFacetFailureDiscardsEverything(t *testing.T) {
	// "expressive style" appears only in the personality facet text,
	// the fifth of seven.
	p := &fakeProvider{failOn: "expressive style"}
	g := NewGenerator(p, fastConfig(), zerolog.Nop())

	vecs, err := g.Generate(context.Background(), testRecord(), Signals{})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrEmbeddingGeneration)
	assert.Nil(t, vecs, "no partial vector set may escape the generator")
}

func TestGenerator_RetriesUpToCeiling(t *testing.T) {
	p := &fakeProvider{failOn: "expressive style"}
	g := NewGenerator(p, fastConfig(), zerolog.Nop())

	_, err := g.Generate(context.Background(), testRecord(), Signals{})
	require.Error(t, err)
	// 6 healthy facets embed once; the failing facet is attempted exactly
	// MaxAttempts times (other facets may be cut short by group cancel, so
	// only assert the ceiling was not exceeded).
	assert.LessOrEqual(t, p.callCount(), 6+3)
	assert.GreaterOrEqual(t, p.callCount(), 3)
}

func TestGenerator_CancelledContext(t *testing.T) {
	p := &fakeProvider{}
	g := NewGenerator(p, fastConfig(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, testRecord(), Signals{})
	require.Error(t, err)
}

func TestExtractConcepts_DeterministicOrder(t *testing.T) {
	got := ExtractConcepts("the cat chased the cat and the dog", 4)
	require.NotEmpty(t, got)
	assert.Equal(t, "cat", got[0], "most frequent term first")
}
