package lifecycle

import (
	"time"

	"github.com/threadline-ai/recall/internal/model"
)

const (
	promoteAge = 72 * time.Hour
	expireAge  = 168 * time.Hour
	archiveAge = 168 * time.Hour
	demoteAge  = 336 * time.Hour

	promoteSignificance = 0.6
	promoteIntensity    = 0.7
	expireSignificance  = 0.3
	archiveSignificance = 0.8
	archiveIntensity    = 0.9
	demoteSignificance  = 0.4
)

// Outcome is the tier state a record should hold given its current age and
// scores.
type Outcome struct {
	Tier        model.Tier
	LowPriority bool
}

// Changed reports whether applying the outcome would mutate the record.
func (o Outcome) Changed(rec *model.MemoryRecord) bool {
	return o.Tier != rec.Tier || o.LowPriority != rec.LowPriority
}

// Evaluate computes the record's target tier at the given instant.
//
// The per-tier rules (first match wins within a tier) are iterated to a
// fixpoint so the result depends only on (age, significance, intensity), not
// on how many sweeps have already run. Tiers only move forward, so the loop
// terminates after at most two steps. An immediate re-evaluation therefore
// always returns the tier the previous sweep wrote, which is what makes the
// sweep idempotent.
func Evaluate(rec *model.MemoryRecord, now time.Time) Outcome {
	age := rec.Age(now)
	sig := rec.SignificanceScore
	intensity := rec.EmotionalIntensity

	tier := rec.Tier
	for {
		next := step(tier, age, sig, intensity)
		if next == tier {
			break
		}
		tier = next
	}

	low := rec.LowPriority
	if tier == model.TierCore {
		low = age >= demoteAge && sig < demoteSignificance
	}
	return Outcome{Tier: tier, LowPriority: low}
}

func step(tier model.Tier, age time.Duration, sig, intensity float64) model.Tier {
	switch tier {
	case model.TierWorking:
		if age >= promoteAge && (sig >= promoteSignificance || intensity >= promoteIntensity) {
			return model.TierCore
		}
		if age >= expireAge && sig < expireSignificance {
			return model.TierExpired
		}
	case model.TierCore:
		if age >= archiveAge && (sig >= archiveSignificance || intensity >= archiveIntensity) {
			return model.TierArchived
		}
	}
	// archived and expired are terminal
	return tier
}

// MoreSignificant orders two records for tie-sensitive consumers: higher
// significance wins, then higher emotional intensity, then recency.
func MoreSignificant(a, b *model.MemoryRecord) bool {
	if a.SignificanceScore != b.SignificanceScore {
		return a.SignificanceScore > b.SignificanceScore
	}
	if a.EmotionalIntensity != b.EmotionalIntensity {
		return a.EmotionalIntensity > b.EmotionalIntensity
	}
	return a.Timestamp.After(b.Timestamp)
}
