package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadline-ai/recall/internal/model"
	"github.com/threadline-ai/recall/internal/vectorstore/storetest"
)

func seedRecord(f *storetest.Fake, id string, tier model.Tier, age time.Duration, sig, intensity float64, now time.Time) {
	f.Seed(model.MemoryRecord{
		ID:                 id,
		TenantID:           "bot-a",
		UserID:             "user-1",
		Content:            "turn " + id,
		Role:               model.RoleUser,
		Tier:               tier,
		SignificanceScore:  sig,
		EmotionalIntensity: intensity,
		Timestamp:          now.Add(-age),
	})
}

func TestSweepOnce_AppliesTransitions(t *testing.T) {
	now := time.Now()
	fake := storetest.New()
	seedRecord(fake, "promote", model.TierWorking, 4*24*time.Hour, 0.7, 0.1, now)
	seedRecord(fake, "expire", model.TierWorking, 8*24*time.Hour, 0.1, 0.1, now)
	seedRecord(fake, "archive", model.TierCore, 8*24*time.Hour, 0.85, 0.1, now)
	seedRecord(fake, "demote", model.TierCore, 15*24*time.Hour, 0.35, 0.1, now)
	seedRecord(fake, "fresh", model.TierWorking, time.Hour, 0.9, 0.9, now)

	sw := NewSweeper(fake, nil, zerolog.Nop(), 2).WithClock(func() time.Time { return now })
	res, err := sw.SweepOnce(context.Background(), "bot-a")
	require.NoError(t, err)

	assert.Equal(t, 5, res.Scanned)
	assert.Equal(t, 1, res.Promoted)
	assert.Equal(t, 1, res.Archived)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, 1, res.Demoted)

	rec, ok := fake.Get("promote")
	require.True(t, ok)
	assert.Equal(t, model.TierCore, rec.Tier)

	rec, _ = fake.Get("expire")
	assert.Equal(t, model.TierExpired, rec.Tier)

	rec, _ = fake.Get("archive")
	assert.Equal(t, model.TierArchived, rec.Tier)

	rec, _ = fake.Get("demote")
	assert.Equal(t, model.TierCore, rec.Tier)
	assert.True(t, rec.LowPriority)

	rec, _ = fake.Get("fresh")
	assert.Equal(t, model.TierWorking, rec.Tier)
}

func TestSweepOnce_Idempotent(t *testing.T) {
	now := time.Now()
	fake := storetest.New()
	seedRecord(fake, "promote", model.TierWorking, 4*24*time.Hour, 0.7, 0.1, now)
	seedRecord(fake, "chain", model.TierWorking, 10*24*time.Hour, 0.9, 0.0, now)
	seedRecord(fake, "demote", model.TierCore, 15*24*time.Hour, 0.35, 0.1, now)

	sw := NewSweeper(fake, nil, zerolog.Nop(), 50).WithClock(func() time.Time { return now })
	ctx := context.Background()

	first, err := sw.SweepOnce(ctx, "bot-a")
	require.NoError(t, err)
	assert.Positive(t, first.Transitions())

	// No time elapses between runs, so the second sweep must be a no-op.
	second, err := sw.SweepOnce(ctx, "bot-a")
	require.NoError(t, err)
	assert.Zero(t, second.Transitions())
}

func TestSweepOnce_SkipsOtherTenants(t *testing.T) {
	now := time.Now()
	fake := storetest.New()
	seedRecord(fake, "mine", model.TierWorking, 4*24*time.Hour, 0.7, 0.1, now)
	fake.Seed(model.MemoryRecord{
		ID:                "theirs",
		TenantID:          "bot-b",
		UserID:            "user-9",
		Tier:              model.TierWorking,
		SignificanceScore: 0.7,
		Timestamp:         now.Add(-4 * 24 * time.Hour),
	})

	sw := NewSweeper(fake, nil, zerolog.Nop(), 50).WithClock(func() time.Time { return now })
	res, err := sw.SweepOnce(context.Background(), "bot-a")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)

	rec, _ := fake.Get("theirs")
	assert.Equal(t, model.TierWorking, rec.Tier)
}

func TestSweepOnce_RequiresTenant(t *testing.T) {
	sw := NewSweeper(storetest.New(), nil, zerolog.Nop(), 50)
	_, err := sw.SweepOnce(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrIsolationViolation)
}

func TestJournal_RoundTrip(t *testing.T) {
	j, err := OpenJournal(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		res := model.SweepResult{
			TenantID:   "bot-a",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
			Scanned:    10 + i,
			Promoted:   i,
		}
		require.NoError(t, j.Record(ctx, res))
	}
	require.NoError(t, j.Record(ctx, model.SweepResult{TenantID: "bot-b", StartedAt: base, FinishedAt: base}))

	recent, err := j.Recent(ctx, "bot-a", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 12, recent[0].Scanned, "newest first")
	assert.Equal(t, 2, recent[0].Promoted)
	assert.Equal(t, "bot-a", recent[0].TenantID)
	assert.True(t, recent[0].StartedAt.After(recent[1].StartedAt))
}

func TestSweepOnce_JournalsResult(t *testing.T) {
	now := time.Now()
	fake := storetest.New()
	seedRecord(fake, "promote", model.TierWorking, 4*24*time.Hour, 0.7, 0.1, now)

	j, err := OpenJournal(":memory:")
	require.NoError(t, err)
	defer j.Close()

	sw := NewSweeper(fake, j, zerolog.Nop(), 50).WithClock(func() time.Time { return now })
	_, err = sw.SweepOnce(context.Background(), "bot-a")
	require.NoError(t, err)

	recent, err := j.Recent(context.Background(), "bot-a", 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 1, recent[0].Promoted)
	assert.Equal(t, 1, recent[0].Scanned)
}
