package risk

import (
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/models"
)

// ErrNoMetrics is returned when scoring is invoked without metrics. It is
// surfaced to API callers as the structured {"error": "No metrics
// available"} body rather than a panic or HTTP 500 with no context.
var ErrNoMetrics = errors.New("no metrics available")

// Risk level labels.
const (
	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"
)

// Scorer turns VolumeMetrics into a RiskAssessment using fixed weights and
// calibration ceilings. Stateless apart from configuration; safe for
// concurrent use.
type Scorer struct {
	weights Weights
	cal     Calibration
	logger  *logrus.Logger
	now     func() time.Time
}

// ScorerConfig holds configuration for the scorer.
type ScorerConfig struct {
	Weights     Weights
	Calibration Calibration
	Logger      *logrus.Logger

	// Now overrides the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

// NewScorer creates a scorer. Zero-value weights or calibration fall back
// to the shipped defaults.
func NewScorer(cfg ScorerConfig) *Scorer {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if cfg.Calibration == (Calibration{}) {
		cfg.Calibration = DefaultCalibration()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scorer{
		weights: cfg.Weights,
		cal:     cfg.Calibration,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
}

// ComputeScore maps metrics to a 0-100 risk score and a discrete level.
// Each sub-score is clamped to [0,1] before weighting, so the invariant
// score = 100 * sum(normalized_i * weight_i) holds for arbitrarily extreme
// inputs. Deterministic for identical metrics.
func (s *Scorer) ComputeScore(m *models.VolumeMetrics) (*models.RiskAssessment, error) {
	if m == nil {
		return nil, ErrNoMetrics
	}

	// Higher volatility = higher risk.
	volatility := clamp01(m.VolumeCV * s.cal.VolatilityScale)

	// Lower flow = higher risk.
	liquidity := 1 - clamp01(m.VolumePerMinute/s.cal.HealthyVolumePerMinute)

	// Fewer, larger swaps = higher risk.
	concentration := 1 - clamp01(float64(m.SwapCount)/s.cal.HealthySwapCount)

	// TimeDecay is defined in the weight table but not applied here, so the
	// applied weights sum to 0.90 and the score tops out at 90.
	score := 100 * (volatility*s.weights.VolumeVolatility +
		liquidity*s.weights.LiquidityDepth +
		concentration*s.weights.ConcentrationRisk)

	level := s.levelFor(score)

	s.logger.WithFields(logrus.Fields{
		"score":         round2(score),
		"level":         level,
		"volatility":    round3(volatility),
		"liquidity":     round3(liquidity),
		"concentration": round3(concentration),
	}).Info("computed risk score")

	return &models.RiskAssessment{
		RiskScore: round2(score),
		RiskLevel: level,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Components: models.RiskComponents{
			VolatilityContrib:    round2(volatility * s.weights.VolumeVolatility * 100),
			LiquidityContrib:     round2(liquidity * s.weights.LiquidityDepth * 100),
			ConcentrationContrib: round2(concentration * s.weights.ConcentrationRisk * 100),
		},
		NormalizedMetrics: models.NormalizedMetrics{
			Volatility:    round3(volatility),
			Liquidity:     round3(liquidity),
			Concentration: round3(concentration),
		},
	}, nil
}

// levelFor maps a score to its band: LOW < medium threshold <= MEDIUM <
// high threshold <= HIGH. Half-open on the lower bound, no gap or overlap.
func (s *Scorer) levelFor(score float64) string {
	switch {
	case score < s.cal.MediumThreshold:
		return LevelLow
	case score < s.cal.HighThreshold:
		return LevelMedium
	default:
		return LevelHigh
	}
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

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
