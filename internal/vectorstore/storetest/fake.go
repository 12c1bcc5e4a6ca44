// Package storetest provides an in-memory vectorstore.Store used across the
// engine's unit tests.
package storetest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/threadline-ai/recall/internal/model"
	"github.com/threadline-ai/recall/internal/vectorstore"
)

// Fake is an in-memory Store with the same isolation preconditions as the
// Weaviate adapter. FailReads/FailWrites simulate a store outage.
type Fake struct {
	mu      sync.RWMutex
	records map[string]*model.MemoryRecord // keyed by id

	FailReads  bool
	FailWrites bool
}

func New() *Fake {
	return &Fake{records: make(map[string]*model.MemoryRecord)}
}

// Seed inserts a record bypassing write validation; test setup only.
func (f *Fake) Seed(rec model.MemoryRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID == "" {
		rec.ID = vectorstore.DeterministicID(rec.TenantID, rec.UserID, rec.Content, rec.Timestamp)
	}
	cp := rec
	f.records[rec.ID] = &cp
}

// Get returns a stored record by id; test assertions only.
func (f *Fake) Get(id string) (model.MemoryRecord, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	rec, ok := f.records[id]
	if !ok {
		return model.MemoryRecord{}, false
	}
	return *rec, true
}

// Len reports the number of stored records.
func (f *Fake) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.records)
}

func (f *Fake) Write(_ context.Context, rec *model.MemoryRecord) (string, bool, error) {
	if rec.TenantID == "" || rec.UserID == "" {
		return "", false, fmt.Errorf("%w: write without tenant/user identity", model.ErrIsolationViolation)
	}
	if err := rec.Vectors.Validate(); err != nil {
		return "", false, err
	}
	if f.FailWrites {
		return "", false, fmt.Errorf("%w: fake outage", model.ErrStoreUnavailable)
	}

	id := rec.ID
	if id == "" {
		id = vectorstore.DeterministicID(rec.TenantID, rec.UserID, rec.Content, rec.Timestamp)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.records[id]; exists {
		return id, true, nil
	}
	cp := *rec
	cp.ID = id
	f.records[id] = &cp
	return id, false, nil
}

func (f *Fake) ReadByFilter(_ context.Context, flt vectorstore.Filters, order vectorstore.Order, limit int) ([]model.MemoryRecord, error) {
	if err := assertIsolation(flt); err != nil {
		return nil, err
	}
	if f.FailReads {
		return nil, fmt.Errorf("%w: fake outage", model.ErrStoreUnavailable)
	}
	if limit <= 0 {
		return []model.MemoryRecord{}, nil
	}

	out := f.filtered(flt)
	sort.Slice(out, func(i, j int) bool {
		if order == vectorstore.OrderAsc {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) SimilaritySearch(_ context.Context, flt vectorstore.Filters, target model.VectorName, vec []float32, topK int) ([]vectorstore.SearchHit, error) {
	if err := assertIsolation(flt); err != nil {
		return nil, err
	}
	if f.FailReads {
		return nil, fmt.Errorf("%w: fake outage", model.ErrStoreUnavailable)
	}
	if topK <= 0 || len(vec) == 0 {
		return []vectorstore.SearchHit{}, nil
	}

	var hits []vectorstore.SearchHit
	for _, rec := range f.filtered(flt) {
		tv, ok := rec.Vectors[target]
		if !ok {
			continue
		}
		hits = append(hits, vectorstore.SearchHit{Record: rec, Score: cosine(vec, tv)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (f *Fake) SweepScan(_ context.Context, tenant string, pageSize int, fn func(page []model.MemoryRecord) error) error {
	if tenant == "" {
		return fmt.Errorf("%w: sweep scan without tenant", model.ErrIsolationViolation)
	}
	if f.FailReads {
		return fmt.Errorf("%w: fake outage", model.ErrStoreUnavailable)
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	f.mu.RLock()
	var all []model.MemoryRecord
	for _, rec := range f.records {
		if rec.TenantID != tenant {
			continue
		}
		if rec.Tier != model.TierWorking && rec.Tier != model.TierCore {
			continue
		}
		all = append(all, *rec)
	}
	f.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })
	for start := 0; start < len(all); start += pageSize {
		end := start + pageSize
		if end > len(all) {
			end = len(all)
		}
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fake) UpdateLifecycleFields(_ context.Context, tenant, user, id string, upd vectorstore.LifecycleUpdate) error {
	if tenant == "" || user == "" {
		return fmt.Errorf("%w: lifecycle update without tenant/user identity", model.ErrIsolationViolation)
	}
	if f.FailWrites {
		return fmt.Errorf("%w: fake outage", model.ErrStoreUnavailable)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.TenantID != tenant || rec.UserID != user {
		return model.ErrNotFound
	}
	rec.Tier = upd.Tier
	rec.LowPriority = upd.LowPriority
	rec.EmotionalContext = upd.EmotionalContext
	rec.EmotionalIntensity = upd.EmotionalIntensity
	rec.SignificanceScore = upd.SignificanceScore
	return nil
}

func (f *Fake) filtered(flt vectorstore.Filters) []model.MemoryRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []model.MemoryRecord
	for _, rec := range f.records {
		if rec.TenantID != flt.Tenant || rec.UserID != flt.User {
			continue
		}
		if !flt.IncludeExpired && rec.Tier == model.TierExpired {
			continue
		}
		if flt.After != nil && rec.Timestamp.Before(*flt.After) {
			continue
		}
		if flt.Before != nil && !rec.Timestamp.Before(*flt.Before) {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

func assertIsolation(f vectorstore.Filters) error {
	if f.Tenant == "" {
		return fmt.Errorf("%w: missing tenant filter", model.ErrIsolationViolation)
	}
	if f.User == "" {
		return fmt.Errorf("%w: missing user filter", model.ErrIsolationViolation)
	}
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ vectorstore.Store = (*Fake)(nil)
