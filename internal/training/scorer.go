package training

import (
	"fmt"
	"math"
	"time"

	"github.com/jengzang/periodic-risk-go/internal/circular"
	"github.com/jengzang/periodic-risk-go/internal/models"
)

// Reasons reported with an undefined score
const (
	ReasonNoProfile     = "no trained profile"
	ReasonLowConfidence = "no domain passed the confidence threshold"
)

// ScoringConfig controls how per-domain risks are combined
type ScoringConfig struct {
	MinConfidence float64
	Weights       map[circular.Domain]float64
	Location      *time.Location
}

// DefaultScoringConfig returns the scoring defaults
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		MinConfidence: 0.85,
		Weights: map[circular.Domain]float64{
			circular.Hour:       0.5,
			circular.DayOfWeek:  0.2,
			circular.DayOfMonth: 0.3,
		},
		Location: time.UTC,
	}
}

// Score is the combined risk of one timestamp. Risk is nil when undefined.
type Score struct {
	Risk    *int
	Used    []circular.Domain
	Skipped []circular.Domain
	Reason  string
}

// Scorer looks timestamps up in trained risk profiles
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer creates a new scorer
func NewScorer(cfg ScoringConfig) *Scorer {
	def := DefaultScoringConfig()
	if cfg.Weights == nil {
		cfg.Weights = def.Weights
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	return &Scorer{cfg: cfg}
}

// Score combines the per-domain risks of at under profile. Domains whose
// confidence is below the threshold are skipped and the weights of the
// remaining ones are renormalized.
func (s *Scorer) Score(profile *models.RiskProfile, at time.Time) (Score, error) {
	if profile == nil {
		return Score{Reason: ReasonNoProfile}, nil
	}

	at = at.In(s.cfg.Location)

	var res Score
	var weighted, weights float64
	for _, d := range circular.AllDomains() {
		dp := profile.Domain(d)
		w := s.cfg.Weights[d]
		if dp == nil || w <= 0 || dp.Confidence < s.cfg.MinConfidence {
			res.Skipped = append(res.Skipped, d)
			continue
		}
		if len(dp.RiskScores) < 2 {
			return Score{}, fmt.Errorf("%w: %s profile of %s has %d risk scores", circular.ErrInvalidInput, d, profile.AccountID, len(dp.RiskScores))
		}

		angle, err := circular.TimeToAngle(at, d)
		if err != nil {
			return Score{}, err
		}
		idx := circular.NearestIndex(circular.Grid(len(dp.RiskScores)), angle)

		weighted += w * float64(dp.RiskScores[idx])
		weights += w
		res.Used = append(res.Used, d)
	}

	if weights == 0 {
		res.Reason = ReasonLowConfidence
		return res, nil
	}

	risk := int(math.RoundToEven(weighted / weights))
	res.Risk = &risk
	return res, nil
}
