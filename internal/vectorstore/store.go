// Package vectorstore owns all reads and writes against the external vector
// database. Every operation is scoped to a tenant (bot namespace) and,
// where applicable, a user; cross-tenant leakage is treated as a
// correctness violation and defensively asserted before any I/O.
package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/threadline-ai/recall/internal/model"
)

// Order selects the chronological scroll direction.
type Order int

const (
	OrderAsc  Order = iota // oldest first
	OrderDesc              // newest first
)

// Filters scopes a read. Tenant and User are mandatory; the zero values of
// the remaining fields mean "no constraint".
type Filters struct {
	Tenant string
	User   string

	// After/Before bound the timestamp window (inclusive lower, exclusive
	// upper).
	After  *time.Time
	Before *time.Time

	// IncludeExpired widens the read to expired records (rank-audit paths
	// only); default retrieval excludes them.
	IncludeExpired bool
}

// assertIsolation is the universal precondition of every scoped call.
func (f Filters) assertIsolation() error {
	if f.Tenant == "" {
		return fmt.Errorf("%w: missing tenant filter", model.ErrIsolationViolation)
	}
	if f.User == "" {
		return fmt.Errorf("%w: missing user filter", model.ErrIsolationViolation)
	}
	return nil
}

// SearchHit is one ranked result from a similarity search.
type SearchHit struct {
	Record model.MemoryRecord
	Score  float64
}

// LifecycleUpdate carries the only fields the sweep may mutate.
type LifecycleUpdate struct {
	Tier               model.Tier
	LowPriority        bool
	EmotionalContext   string
	EmotionalIntensity float64
	SignificanceScore  float64
}

// Store is the vector store adapter contract.
type Store interface {
	// Write persists a complete record. Writes are check-then-act: a record
	// whose deterministic id already exists is not re-inserted, and the
	// existing id is returned with duplicate=true.
	Write(ctx context.Context, rec *model.MemoryRecord) (id string, duplicate bool, err error)

	// ReadByFilter scrolls records chronologically in the given direction.
	ReadByFilter(ctx context.Context, f Filters, order Order, limit int) ([]model.MemoryRecord, error)

	// SimilaritySearch ranks records by nearness to the query vector on the
	// named target facet.
	SimilaritySearch(ctx context.Context, f Filters, target model.VectorName, vec []float32, topK int) ([]SearchHit, error)

	// SweepScan pages through a tenant's sweepable records (working and
	// core tiers, all users) in timestamp order, invoking fn per page.
	SweepScan(ctx context.Context, tenant string, pageSize int, fn func(page []model.MemoryRecord) error) error

	// UpdateLifecycleFields mutates only the four lifecycle fields of one
	// record; immutable fields and vectors are never touched.
	UpdateLifecycleFields(ctx context.Context, tenant, user, id string, upd LifecycleUpdate) error
}
