package emotion

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/threadline-ai/recall/internal/model"
)

// PriorAnalysis is the validated form of a pre-analyzed emotion payload
// attached to incoming metadata. Absence is represented by the (nil, false)
// return of FromMetadata, not by probing for keys downstream.
type PriorAnalysis struct {
	Primary     string
	Intensity   *float64
	Confidence  *float64
	Mixed       []string
	AllEmotions map[string]float64
}

// metadata keys recognized at the ingestion boundary. The alternate
// namespace covers payloads produced by older analyzers that wrap the
// emotion block inside a generic "analysis" object.
const (
	metaKeyAnalysis  = "emotion_analysis"
	metaKeyAltParent = "analysis"
)

// FromMetadata extracts a structurally valid prior analysis from the
// metadata bag. Valid means a non-empty primary label; everything else is
// optional.
func FromMetadata(md map[string]interface{}) (*PriorAnalysis, bool) {
	if md == nil {
		return nil, false
	}
	raw, ok := md[metaKeyAnalysis].(map[string]interface{})
	if !ok {
		parent, pok := md[metaKeyAltParent].(map[string]interface{})
		if !pok {
			return nil, false
		}
		raw, ok = parent[metaKeyAnalysis].(map[string]interface{})
		if !ok {
			return nil, false
		}
	}

	primary, _ := raw["primary_emotion"].(string)
	if primary == "" {
		return nil, false
	}

	pa := &PriorAnalysis{Primary: primary}
	if v, ok := toFloat(raw["intensity"]); ok {
		pa.Intensity = &v
	}
	if v, ok := toFloat(raw["confidence"]); ok {
		pa.Confidence = &v
	}
	if mixed, ok := raw["mixed_emotions"].([]interface{}); ok {
		for _, m := range mixed {
			if s, ok := m.(string); ok && s != "" {
				pa.Mixed = append(pa.Mixed, s)
			}
		}
	}
	if all, ok := raw["all_emotions"].(map[string]interface{}); ok {
		pa.AllEmotions = make(map[string]float64, len(all))
		for k, v := range all {
			if f, ok := toFloat(v); ok {
				pa.AllEmotions[k] = f
			}
		}
	}
	return pa, true
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

// Resolver determines the authoritative emotion label and intensity for a
// record. Resolution is a pure call returning a value; there is no cached
// last-analysis state, so concurrent turns never observe each other.
type Resolver struct {
	classifier       Classifier
	defaultIntensity float64
	log              zerolog.Logger
}

// NewResolver builds a resolver. defaultIntensity is used when a prior
// analysis omits intensity (tunable, conventionally 0.5). classifier may be
// nil, in which case content-based inference is skipped.
func NewResolver(c Classifier, defaultIntensity float64, log zerolog.Logger) *Resolver {
	if defaultIntensity < 0 || defaultIntensity > 1 {
		defaultIntensity = 0.5
	}
	return &Resolver{
		classifier:       c,
		defaultIntensity: defaultIntensity,
		log:              log.With().Str("component", "emotion_resolver").Logger(),
	}
}

// Resolve applies the strict priority order: structurally valid prior
// analysis, then content-based inference, then the unresolved sentinel.
// Contamination filtering applies to every source: a contaminated label is
// dropped and resolution falls through to the next source. Classifier
// failures degrade to unresolved rather than failing the caller.
func (r *Resolver) Resolve(ctx context.Context, content string, metadata map[string]interface{}) model.EmotionContext {
	if prior, ok := FromMetadata(metadata); ok {
		if Contaminated(prior.Primary) {
			r.log.Debug().Str("label", prior.Primary).Msg("contaminated prior emotion label dropped")
		} else {
			out := model.EmotionContext{
				Label:        prior.Primary,
				Intensity:    r.defaultIntensity,
				Mixed:        prior.Mixed,
				Distribution: prior.AllEmotions,
				Source:       "prior",
			}
			if prior.Intensity != nil {
				out.Intensity = clamp01(*prior.Intensity)
			}
			if prior.Confidence != nil {
				out.Confidence = clamp01(*prior.Confidence)
			}
			return out
		}
	}

	if r.classifier != nil && content != "" {
		inf, err := r.classifier.Infer(ctx, content)
		switch {
		case err != nil:
			r.log.Warn().Err(err).Msg("emotion inference failed; resolving as unresolved")
		case inf.Label == "":
			r.log.Debug().Msg("classifier returned empty label")
		case Contaminated(inf.Label):
			r.log.Debug().Str("label", inf.Label).Msg("contaminated inferred emotion label dropped")
		default:
			return model.EmotionContext{
				Label:        inf.Label,
				Intensity:    clamp01(inf.Intensity),
				Confidence:   clamp01(inf.Confidence),
				Mixed:        inf.Mixed,
				Distribution: inf.Distribution,
				Source:       "inferred",
			}
		}
	}

	return model.EmotionContext{Label: model.EmotionUnresolved, Source: "unresolved"}
}

// ResolveStored derives the display emotion for an already persisted record.
// The same contamination filter applies as on the write path: a stored label
// that names a channel rather than an emotion resolves to the unresolved
// sentinel instead of leaking to the caller. Prior metadata supplies the
// auxiliary fields; no inference runs on the read path.
func (r *Resolver) ResolveStored(rec *model.MemoryRecord) model.EmotionContext {
	out := model.EmotionContext{
		Label:     rec.EmotionalContext,
		Intensity: clamp01(rec.EmotionalIntensity),
		Source:    "stored",
	}
	if out.Label == "" || out.Label == model.EmotionUnresolved || Contaminated(out.Label) {
		out.Label = model.EmotionUnresolved
		out.Source = "unresolved"
	}
	if prior, ok := FromMetadata(rec.Metadata); ok && !Contaminated(prior.Primary) {
		out.Mixed = prior.Mixed
		out.Distribution = prior.AllEmotions
		if prior.Confidence != nil {
			out.Confidence = clamp01(*prior.Confidence)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
