package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/threadline-ai/recall/internal/model"
)

func recordAged(tier model.Tier, age time.Duration, sig, intensity float64, now time.Time) *model.MemoryRecord {
	return &model.MemoryRecord{
		ID:                 "rec-1",
		TenantID:           "bot-a",
		UserID:             "user-1",
		Tier:               tier,
		SignificanceScore:  sig,
		EmotionalIntensity: intensity,
		Timestamp:          now.Add(-age),
	}
}

func TestEvaluate_PromotionBoundary(t *testing.T) {
	now := time.Now()

	// Exactly three days old at significance 0.6 promotes.
	rec := recordAged(model.TierWorking, 72*time.Hour, 0.6, 0.0, now)
	assert.Equal(t, model.TierCore, Evaluate(rec, now).Tier)

	// One second short of three days does not.
	rec = recordAged(model.TierWorking, 72*time.Hour-time.Second, 0.6, 0.0, now)
	assert.Equal(t, model.TierWorking, Evaluate(rec, now).Tier)
}

func TestEvaluate_IntensityAlonePromotes(t *testing.T) {
	now := time.Now()
	rec := recordAged(model.TierWorking, 80*time.Hour, 0.2, 0.7, now)
	assert.Equal(t, model.TierCore, Evaluate(rec, now).Tier)
}

func TestEvaluate_WorkingExpires(t *testing.T) {
	now := time.Now()
	rec := recordAged(model.TierWorking, 8*24*time.Hour, 0.2, 0.1, now)
	assert.Equal(t, model.TierExpired, Evaluate(rec, now).Tier)
}

func TestEvaluate_PromotionBeatsExpiry(t *testing.T) {
	// Old low-significance but intense record: the promotion rule matches
	// first, so it lands in core rather than expired.
	now := time.Now()
	rec := recordAged(model.TierWorking, 8*24*time.Hour, 0.2, 0.8, now)
	assert.Equal(t, model.TierCore, Evaluate(rec, now).Tier)
}

func TestEvaluate_CoreArchives(t *testing.T) {
	now := time.Now()
	rec := recordAged(model.TierCore, 8*24*time.Hour, 0.85, 0.1, now)
	assert.Equal(t, model.TierArchived, Evaluate(rec, now).Tier)

	rec = recordAged(model.TierCore, 8*24*time.Hour, 0.5, 0.95, now)
	assert.Equal(t, model.TierArchived, Evaluate(rec, now).Tier)

	rec = recordAged(model.TierCore, 8*24*time.Hour, 0.5, 0.5, now)
	assert.Equal(t, model.TierCore, Evaluate(rec, now).Tier)
}

func TestEvaluate_WorkingChainsToArchivedInOnePass(t *testing.T) {
	// A record never swept while it crossed both thresholds settles directly
	// in archived; a second evaluation at the same instant changes nothing.
	now := time.Now()
	rec := recordAged(model.TierWorking, 10*24*time.Hour, 0.9, 0.0, now)

	out := Evaluate(rec, now)
	assert.Equal(t, model.TierArchived, out.Tier)

	rec.Tier = out.Tier
	rec.LowPriority = out.LowPriority
	again := Evaluate(rec, now)
	assert.Equal(t, out, again)
	assert.False(t, again.Changed(rec))
}

func TestEvaluate_CoreDemotion(t *testing.T) {
	now := time.Now()

	rec := recordAged(model.TierCore, 15*24*time.Hour, 0.35, 0.1, now)
	out := Evaluate(rec, now)
	assert.Equal(t, model.TierCore, out.Tier)
	assert.True(t, out.LowPriority)

	// Below the demotion age the flag stays off.
	rec = recordAged(model.TierCore, 13*24*time.Hour, 0.35, 0.1, now)
	assert.False(t, Evaluate(rec, now).LowPriority)
}

func TestEvaluate_TerminalTiersStay(t *testing.T) {
	now := time.Now()
	for _, tier := range []model.Tier{model.TierArchived, model.TierExpired} {
		rec := recordAged(tier, 100*24*time.Hour, 0.9, 0.9, now)
		assert.Equal(t, tier, Evaluate(rec, now).Tier)
	}
}

func TestSignificanceScore(t *testing.T) {
	// User turns outweigh assistant turns at equal intensity and length.
	u := SignificanceScore(model.RoleUser, "short", 0.5)
	a := SignificanceScore(model.RoleAssistant, "short", 0.5)
	assert.Greater(t, u, a)

	// Intensity dominates the blend.
	hot := SignificanceScore(model.RoleUser, "short", 1.0)
	cold := SignificanceScore(model.RoleUser, "short", 0.0)
	assert.InDelta(t, 0.45, hot-cold, 1e-9)

	// Score stays within [0,1] even for degenerate inputs.
	assert.LessOrEqual(t, SignificanceScore(model.RoleUser, string(make([]rune, 5000)), 2.0), 1.0)
	assert.GreaterOrEqual(t, SignificanceScore(model.RoleAssistant, "", -1.0), 0.0)
}

func TestMoreSignificant_TieBreaks(t *testing.T) {
	now := time.Now()
	a := recordAged(model.TierWorking, time.Hour, 0.5, 0.8, now)
	b := recordAged(model.TierWorking, 2*time.Hour, 0.5, 0.6, now)
	assert.True(t, MoreSignificant(a, b), "higher intensity wins on equal significance")

	c := recordAged(model.TierWorking, time.Hour, 0.5, 0.6, now)
	assert.True(t, MoreSignificant(c, b), "newer wins on equal significance and intensity")
}
