package vectorstore

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

const className = "MemoryRecord"

// vectorConfig builds the seven named-vector definitions. Vectors are
// client-supplied, so every facet uses vectorizer "none".
func vectorConfig() map[string]models.VectorConfig {
	out := make(map[string]models.VectorConfig, 7)
	for _, name := range vectorFacets() {
		out[name] = models.VectorConfig{
			Vectorizer:      map[string]interface{}{"none": map[string]interface{}{}},
			VectorIndexType: "hnsw",
		}
	}
	return out
}

func vectorFacets() []string {
	return []string{"content", "emotion", "semantic", "relationship", "personality", "interaction", "temporal"}
}

// Bootstrap ensures the MemoryRecord class exists with multi-tenancy and
// the seven named vectors. An existing class without multi-tenancy is
// dropped and recreated (dev environments only reach that state).
func Bootstrap(ctx context.Context, baseURL string) error {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	desired := &models.Class{
		Class:      className,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "recordId", DataType: []string{"uuid"}},
			{Name: "userId", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "role", DataType: []string{"text"}},
			{Name: "memoryType", DataType: []string{"text"}},
			{Name: "emotionalContext", DataType: []string{"text"}},
			{Name: "emotionalIntensity", DataType: []string{"number"}},
			{Name: "significanceScore", DataType: []string{"number"}},
			{Name: "tier", DataType: []string{"text"}},
			{Name: "lowPriority", DataType: []string{"boolean"}},
			{Name: "timestamp", DataType: []string{"date"}},
			{Name: "metadata", DataType: []string{"text"}},
		},
		MultiTenancyConfig: &models.MultiTenancyConfig{Enabled: true},
		VectorConfig:       vectorConfig(),
	}

	if err := ensureClass(cctx, cl, desired); err != nil {
		return fmt.Errorf("bootstrap %s: %w", className, err)
	}
	return nil
}

func ensureClass(ctx context.Context, cl *weaviate.Client, desired *models.Class) error {
	ex, err := cl.Schema().ClassGetter().WithClassName(desired.Class).Do(ctx)
	if err == nil && ex != nil {
		if ex.MultiTenancyConfig != nil && ex.MultiTenancyConfig.Enabled && len(ex.VectorConfig) == len(desired.VectorConfig) {
			return nil
		}
		if err := cl.Schema().ClassDeleter().WithClassName(desired.Class).Do(ctx); err != nil {
			return fmt.Errorf("delete class %s: %w", desired.Class, err)
		}
	}
	if err := cl.Schema().ClassCreator().WithClass(desired).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", desired.Class, err)
	}
	return nil
}
