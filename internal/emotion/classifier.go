// Package emotion resolves the authoritative emotional context of a memory
// record from pre-analyzed metadata or content-based inference.
package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Inference is the triple-plus-distribution returned by the external
// emotion classifier.
type Inference struct {
	Label        string             `json:"label"`
	Intensity    float64            `json:"intensity"`
	Confidence   float64            `json:"confidence"`
	Distribution map[string]float64 `json:"distribution,omitempty"`
	Mixed        []string           `json:"mixed,omitempty"`
}

// Classifier infers emotion from raw content. Stateless; used as the
// fallback source when no prior analysis is attached to a record.
type Classifier interface {
	Infer(ctx context.Context, text string) (Inference, error)
}

// HTTPClassifier calls an external classifier service.
type HTTPClassifier struct {
	client *resty.Client
}

// NewHTTPClassifier creates a classifier client for baseURL (scheme
// included).
func NewHTTPClassifier(baseURL string) *HTTPClassifier {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	return &HTTPClassifier{client: c}
}

type inferRequest struct {
	Text string `json:"text"`
}

func (h *HTTPClassifier) Infer(ctx context.Context, text string) (Inference, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(&inferRequest{Text: text}).
		Post("/classify")
	if err != nil {
		return Inference{}, fmt.Errorf("classifier request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Inference{}, fmt.Errorf("classifier status %d: %s", resp.StatusCode(), resp.String())
	}
	var out Inference
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return Inference{}, fmt.Errorf("decode classifier response: %w", err)
	}
	return out, nil
}

// HealthPing probes the classifier's health endpoint.
func (h *HTTPClassifier) HealthPing(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("classifier status %d", resp.StatusCode())
	}
	return nil
}
