package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/threadline-ai/recall/internal/model"
)

// recordNamespace seeds the deterministic record ids; a stable UUID derived
// from the write identity makes duplicate inserts a lookup, not a conflict
// error.
var recordNamespace = uuid.MustParse("7c0f3a52-9b1e-4d8c-a2f4-6e1d0b9c3a75")

// DeterministicID derives the stable record id for a turn.
func DeterministicID(tenant, user, content string, ts time.Time) string {
	seed := strings.Join([]string{tenant, user, content, ts.UTC().Format(time.RFC3339Nano)}, "\x1f")
	return uuid.NewSHA1(recordNamespace, []byte(seed)).String()
}

// weavStore implements Store against Weaviate. The Weaviate tenant is the
// bot namespace; userId is a payload property injected into every query.
type weavStore struct {
	client  *weaviate.Client
	baseURL string // host:port without scheme
	log     zerolog.Logger
}

// NewWeaviateStore constructs a Store backed by Weaviate at baseURL
// (host:port without scheme).
func NewWeaviateStore(baseURL string, log zerolog.Logger) (Store, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &weavStore{
		client:  cl,
		baseURL: baseURL,
		log:     log.With().Str("component", "vectorstore").Logger(),
	}, nil
}

func (w *weavStore) Write(ctx context.Context, rec *model.MemoryRecord) (string, bool, error) {
	if rec.TenantID == "" || rec.UserID == "" {
		return "", false, fmt.Errorf("%w: write without tenant/user identity", model.ErrIsolationViolation)
	}
	if !rec.Role.Valid() {
		return "", false, fmt.Errorf("%w: invalid role %q", model.ErrValidation, rec.Role)
	}
	if err := rec.Vectors.Validate(); err != nil {
		return "", false, err
	}

	id := rec.ID
	if id == "" {
		id = DeterministicID(rec.TenantID, rec.UserID, rec.Content, rec.Timestamp)
	}

	w.ensureTenant(ctx, rec.TenantID)

	// Check-then-act: an existing id means this turn was already stored.
	exists, err := w.client.Data().Checker().
		WithClassName(className).
		WithID(id).
		WithTenant(rec.TenantID).
		Do(ctx)
	if err == nil && exists {
		return id, true, nil
	}

	_, err = w.client.Data().Creator().
		WithClassName(className).
		WithID(id).
		WithTenant(rec.TenantID).
		WithProperties(propsFromRecord(rec)).
		WithVectors(namedVectors(rec.Vectors)).
		Do(ctx)
	if err != nil {
		return "", false, fmt.Errorf("%w: write: %v", model.ErrStoreUnavailable, err)
	}
	return id, false, nil
}

func (w *weavStore) ReadByFilter(ctx context.Context, f Filters, order Order, limit int) ([]model.MemoryRecord, error) {
	if err := f.assertIsolation(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []model.MemoryRecord{}, nil
	}

	sortOrder := gql.Asc
	if order == OrderDesc {
		sortOrder = gql.Desc
	}

	req := w.client.GraphQL().Get().
		WithClassName(className).
		WithTenant(f.Tenant).
		WithWhere(whereForFilters(f)).
		WithSort(gql.Sort{Path: []string{"timestamp"}, Order: sortOrder}).
		WithLimit(limit).
		WithFields(recordFields()...)

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: scroll: %v", model.ErrStoreUnavailable, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}
	return parseRecords(resp.Data, f.Tenant), nil
}

func (w *weavStore) SimilaritySearch(ctx context.Context, f Filters, target model.VectorName, vec []float32, topK int) ([]SearchHit, error) {
	if err := f.assertIsolation(); err != nil {
		return nil, err
	}
	if topK <= 0 || len(vec) == 0 {
		return []SearchHit{}, nil
	}

	nv := (&gql.NearVectorArgumentBuilder{}).
		WithVector(vec).
		WithTargetVectors(string(target))

	fields := append(recordFields(),
		gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "distance"}}})

	req := w.client.GraphQL().Get().
		WithClassName(className).
		WithTenant(f.Tenant).
		WithWhere(whereForFilters(f)).
		WithNearVector(nv).
		WithLimit(topK).
		WithFields(fields...)

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %v", model.ErrStoreUnavailable, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}

	items := rawItems(resp.Data)
	hits := make([]SearchHit, 0, len(items))
	for _, item := range items {
		rec := recordFromProps(item, f.Tenant)
		score := 0.0
		if add, ok := item["_additional"].(map[string]interface{}); ok {
			if d, ok := toFloat64(add["distance"]); ok {
				// Cosine distance in [0,2]; invert so larger is closer.
				score = 1.0 - d
			}
		}
		hits = append(hits, SearchHit{Record: rec, Score: score})
	}
	return hits, nil
}

func (w *weavStore) SweepScan(ctx context.Context, tenant string, pageSize int, fn func(page []model.MemoryRecord) error) error {
	if tenant == "" {
		return fmt.Errorf("%w: sweep scan without tenant", model.ErrIsolationViolation)
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	// Only working and core records have sweep rules.
	where := filters.Where().WithOperator(filters.Or).WithOperands([]*filters.WhereBuilder{
		filters.Where().WithPath([]string{"tier"}).WithOperator(filters.Equal).WithValueText(string(model.TierWorking)),
		filters.Where().WithPath([]string{"tier"}).WithOperator(filters.Equal).WithValueText(string(model.TierCore)),
	})

	// Materialize the whole candidate set before the first callback. The
	// callback rewrites tiers, and offset pagination over a tier-filtered
	// query would skip records as the filtered set shrinks underneath it.
	var all []model.MemoryRecord
	for offset := 0; ; offset += pageSize {
		req := w.client.GraphQL().Get().
			WithClassName(className).
			WithTenant(tenant).
			WithWhere(where).
			WithSort(gql.Sort{Path: []string{"timestamp"}, Order: gql.Asc}).
			WithLimit(pageSize).
			WithOffset(offset).
			WithFields(recordFields()...)

		resp, err := req.Do(ctx)
		if err != nil {
			return fmt.Errorf("%w: sweep scan: %v", model.ErrStoreUnavailable, err)
		}
		if len(resp.Errors) > 0 {
			return fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
		}

		page := parseRecords(resp.Data, tenant)
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}

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

func (w *weavStore) UpdateLifecycleFields(ctx context.Context, tenant, user, id string, upd LifecycleUpdate) error {
	if tenant == "" || user == "" {
		return fmt.Errorf("%w: lifecycle update without tenant/user identity", model.ErrIsolationViolation)
	}

	props := map[string]interface{}{
		"tier":               string(upd.Tier),
		"lowPriority":        upd.LowPriority,
		"emotionalContext":   upd.EmotionalContext,
		"emotionalIntensity": upd.EmotionalIntensity,
		"significanceScore":  upd.SignificanceScore,
	}

	err := w.client.Data().Updater().
		WithMerge().
		WithClassName(className).
		WithID(id).
		WithTenant(tenant).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: lifecycle update: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// HealthPing calls GET /v1/meta and expects 200 OK.
func (w *weavStore) HealthPing(ctx context.Context) error {
	url := w.baseURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/v1/meta", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weaviate status %d", resp.StatusCode)
	}
	return nil
}

// ensureTenant creates the Weaviate tenant for the bot namespace if not
// present; idempotent.
func (w *weavStore) ensureTenant(ctx context.Context, tenant string) {
	_ = w.client.Schema().TenantsCreator().
		WithClassName(className).
		WithTenants(models.Tenant{Name: tenant}).
		Do(ctx)
}

// whereForFilters builds the mandatory isolation filter plus optional
// window and tier constraints. The userId equality operand is always
// present; callers reach this only after assertIsolation.
func whereForFilters(f Filters) *filters.WhereBuilder {
	operands := []*filters.WhereBuilder{
		filters.Where().WithPath([]string{"userId"}).WithOperator(filters.Equal).WithValueText(f.User),
	}
	if f.After != nil {
		operands = append(operands,
			filters.Where().WithPath([]string{"timestamp"}).WithOperator(filters.GreaterThanEqual).WithValueDate(*f.After))
	}
	if f.Before != nil {
		operands = append(operands,
			filters.Where().WithPath([]string{"timestamp"}).WithOperator(filters.LessThan).WithValueDate(*f.Before))
	}
	if !f.IncludeExpired {
		operands = append(operands,
			filters.Where().WithPath([]string{"tier"}).WithOperator(filters.NotEqual).WithValueText(string(model.TierExpired)))
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}

func recordFields() []gql.Field {
	return []gql.Field{
		{Name: "recordId"},
		{Name: "userId"},
		{Name: "content"},
		{Name: "role"},
		{Name: "memoryType"},
		{Name: "emotionalContext"},
		{Name: "emotionalIntensity"},
		{Name: "significanceScore"},
		{Name: "tier"},
		{Name: "lowPriority"},
		{Name: "timestamp"},
		{Name: "metadata"},
	}
}

func propsFromRecord(rec *model.MemoryRecord) map[string]interface{} {
	props := map[string]interface{}{
		"recordId":           rec.ID,
		"userId":             rec.UserID,
		"content":            rec.Content,
		"role":               string(rec.Role),
		"memoryType":         rec.MemoryType,
		"emotionalContext":   rec.EmotionalContext,
		"emotionalIntensity": rec.EmotionalIntensity,
		"significanceScore":  rec.SignificanceScore,
		"tier":               string(rec.Tier),
		"lowPriority":        rec.LowPriority,
		"timestamp":          strfmt.DateTime(rec.Timestamp.UTC()),
	}
	if rec.ID == "" {
		props["recordId"] = DeterministicID(rec.TenantID, rec.UserID, rec.Content, rec.Timestamp)
	}
	if len(rec.Metadata) > 0 {
		if data, err := json.Marshal(rec.Metadata); err == nil {
			props["metadata"] = string(data)
		}
	}
	return props
}

func namedVectors(v model.NamedVectors) models.Vectors {
	out := make(models.Vectors, len(v))
	for name, vec := range v {
		out[string(name)] = models.Vector(vec)
	}
	return out
}

func rawItems(data map[string]models.JSONObject) []map[string]interface{} {
	getData, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	arr, ok := getData[className].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func parseRecords(data map[string]models.JSONObject, tenant string) []model.MemoryRecord {
	items := rawItems(data)
	out := make([]model.MemoryRecord, 0, len(items))
	for _, item := range items {
		out = append(out, recordFromProps(item, tenant))
	}
	return out
}

func recordFromProps(m map[string]interface{}, tenant string) model.MemoryRecord {
	rec := model.MemoryRecord{
		ID:               safeString(m["recordId"]),
		TenantID:         tenant,
		UserID:           safeString(m["userId"]),
		Content:          safeString(m["content"]),
		Role:             model.Role(safeString(m["role"])),
		MemoryType:       safeString(m["memoryType"]),
		EmotionalContext: safeString(m["emotionalContext"]),
		Tier:             model.Tier(safeString(m["tier"])),
	}
	if v, ok := toFloat64(m["emotionalIntensity"]); ok {
		rec.EmotionalIntensity = v
	}
	if v, ok := toFloat64(m["significanceScore"]); ok {
		rec.SignificanceScore = v
	}
	if b, ok := m["lowPriority"].(bool); ok {
		rec.LowPriority = b
	}
	if ts, err := time.Parse(time.RFC3339Nano, safeString(m["timestamp"])); err == nil {
		rec.Timestamp = ts
	}
	if raw := safeString(m["metadata"]); raw != "" {
		var md map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &md); err == nil {
			rec.Metadata = md
		}
	}
	return rec
}

func safeString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toFloat64(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
