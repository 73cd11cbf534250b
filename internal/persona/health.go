package persona

import (
	"context"
	"time"
)

// Default weights used to derive HealthScore.Overall
const (
	ClarityWeight        = 0.3
	NaturalnessWeight    = 0.3
	ConsistencyWeight    = 0.2
	BrandAlignmentWeight = 0.2
)

// HealthScore is an audio-quality assessment of a persona's voice.
// Sub-scores and Overall are in the range 0-100.
type HealthScore struct {
	Clarity         float64   `json:"clarity" yaml:"clarity"`
	Naturalness     float64   `json:"naturalness" yaml:"naturalness"`
	Consistency     float64   `json:"consistency" yaml:"consistency"`
	BrandAlignment  float64   `json:"brand_alignment" yaml:"brand_alignment"`
	Overall         float64   `json:"overall" yaml:"overall"`
	AssessedAt      time.Time `json:"assessed_at,omitempty" yaml:"assessed_at,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// HealthScorer produces a health record for a persona on demand.
// Implementations wrap an external audio-analysis service.
type HealthScorer interface {
	Score(ctx context.Context, p Persona) (HealthScore, error)
}

// NewHealthScore clamps the sub-scores and derives Overall from them
func NewHealthScore(clarity, naturalness, consistency, brandAlignment float64, at time.Time, recommendations ...string) HealthScore {
	h := HealthScore{
		Clarity:         clampScore(clarity),
		Naturalness:     clampScore(naturalness),
		Consistency:     clampScore(consistency),
		BrandAlignment:  clampScore(brandAlignment),
		AssessedAt:      at,
		Recommendations: recommendations,
	}
	h.Overall = h.weightedOverall()
	return h
}

func (h HealthScore) weightedOverall() float64 {
	return clampScore(h.Clarity*ClarityWeight +
		h.Naturalness*NaturalnessWeight +
		h.Consistency*ConsistencyWeight +
		h.BrandAlignment*BrandAlignmentWeight)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
