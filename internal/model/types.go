package model

import (
	"fmt"
	"time"
)

// Role identifies who produced a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAssistant }

// Tier is the aging classification of a memory record. Exactly one tier is
// active per record; Expired is terminal and excluded from default retrieval.
type Tier string

const (
	TierWorking  Tier = "working"
	TierCore     Tier = "core"
	TierArchived Tier = "archived"
	TierExpired  Tier = "expired"
)

// VectorName addresses one of the seven embedding facets stored per record.
type VectorName string

const (
	VectorContent      VectorName = "content"
	VectorEmotion      VectorName = "emotion"
	VectorSemantic     VectorName = "semantic"
	VectorRelationship VectorName = "relationship"
	VectorPersonality  VectorName = "personality"
	VectorInteraction  VectorName = "interaction"
	VectorTemporal     VectorName = "temporal"
)

// VectorNames returns all seven facet names in a stable order.
func VectorNames() []VectorName {
	return []VectorName{
		VectorContent, VectorEmotion, VectorSemantic, VectorRelationship,
		VectorPersonality, VectorInteraction, VectorTemporal,
	}
}

// NamedVectors holds the per-facet embeddings of a record.
type NamedVectors map[VectorName][]float32

// Validate enforces the all-seven-or-nothing rule: a record missing any facet
// vector is invalid and must never be persisted.
func (v NamedVectors) Validate() error {
	for _, name := range VectorNames() {
		vec, ok := v[name]
		if !ok || len(vec) == 0 {
			return fmt.Errorf("%w: missing vector %q", ErrValidation, name)
		}
	}
	if len(v) != len(VectorNames()) {
		return fmt.Errorf("%w: unexpected extra vectors (%d)", ErrValidation, len(v))
	}
	return nil
}

// EmotionUnresolved is the sentinel label stored when no trustworthy emotion
// source remains after contamination filtering.
const EmotionUnresolved = "unresolved"

// EmotionContext is the resolved emotional state of a record plus the
// auxiliary multi-emotion data carried for downstream consumers. The
// auxiliary fields never override Label.
type EmotionContext struct {
	Label        string             `json:"label"`
	Intensity    float64            `json:"intensity"`
	Confidence   float64            `json:"confidence,omitempty"`
	Mixed        []string           `json:"mixed,omitempty"`
	Distribution map[string]float64 `json:"distribution,omitempty"`
	Source       string             `json:"source"` // "prior", "inferred" or "unresolved"
}

// MemoryRecord is the atomic unit of conversational memory.
//
// Content, Role, Timestamp, TenantID and UserID are immutable after
// creation. Tier, LowPriority, EmotionalContext, EmotionalIntensity and
// SignificanceScore are the only fields mutated post-creation, and only by
// the lifecycle sweep or the resolver.
type MemoryRecord struct {
	ID                 string                 `json:"id"`
	TenantID           string                 `json:"tenantId"`
	UserID             string                 `json:"userId"`
	Content            string                 `json:"content"`
	Role               Role                   `json:"role"`
	Timestamp          time.Time              `json:"timestamp"`
	MemoryType         string                 `json:"memoryType"`
	EmotionalContext   string                 `json:"emotionalContext"`
	EmotionalIntensity float64                `json:"emotionalIntensity"`
	SignificanceScore  float64                `json:"significanceScore"`
	Tier               Tier                   `json:"tier"`
	LowPriority        bool                   `json:"lowPriority,omitempty"`
	Vectors            NamedVectors           `json:"-"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// Age returns the record's age at the given instant.
func (m *MemoryRecord) Age(now time.Time) time.Duration { return now.Sub(m.Timestamp) }

// ScoredRecord is a retrieval result with rank metadata attached.
// TemporalRank is set on the chronological path, SimilarityScore on the
// semantic path; never both.
type ScoredRecord struct {
	Record          MemoryRecord   `json:"record"`
	TemporalRank    *int           `json:"temporalRank,omitempty"`
	SimilarityScore *float64       `json:"similarityScore,omitempty"`
	Emotion         EmotionContext `json:"emotion"`
}

// SweepResult reports the transitions applied by one lifecycle sweep.
type SweepResult struct {
	TenantID   string        `json:"tenantId"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Scanned    int           `json:"scanned"`
	Promoted   int           `json:"promoted"`
	Archived   int           `json:"archived"`
	Expired    int           `json:"expired"`
	Demoted    int           `json:"demoted"`
	Elapsed    time.Duration `json:"-"`
}

// Transitions is the total number of tier changes applied.
func (r SweepResult) Transitions() int {
	return r.Promoted + r.Archived + r.Expired + r.Demoted
}
