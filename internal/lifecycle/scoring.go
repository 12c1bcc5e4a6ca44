// Package lifecycle owns the tier aging model: significance scoring, the
// deterministic tier rules, and the periodic sweep that applies them.
package lifecycle

import "github.com/threadline-ai/recall/internal/model"

const (
	roleWeightUser      = 0.6
	roleWeightAssistant = 0.4

	// Content at or beyond this rune count saturates the length factor.
	lengthSaturation = 280
)

// SignificanceScore derives the normalized importance weight of a new record.
//
// The score is a fixed-weight blend of emotional intensity, role and content
// length. It is computed once at write time and only the sweep may rewrite
// it afterwards.
func SignificanceScore(role model.Role, content string, emotionalIntensity float64) float64 {
	rw := roleWeightAssistant
	if role == model.RoleUser {
		rw = roleWeightUser
	}

	n := len([]rune(content))
	lf := float64(n) / lengthSaturation
	if lf > 1 {
		lf = 1
	}

	score := 0.45*clamp01(emotionalIntensity) + 0.35*rw + 0.20*lf
	return clamp01(score)
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
