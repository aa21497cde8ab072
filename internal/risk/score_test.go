package risk

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/models"
)

func testScorer() *Scorer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewScorer(ScorerConfig{
		Logger: logger,
		Now:    func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func TestComputeScore_NoMetrics(t *testing.T) {
	r, err := testScorer().ComputeScore(nil)
	assert.ErrorIs(t, err, ErrNoMetrics)
	assert.Nil(t, r)
}

func TestComputeScore_EndToEndExample(t *testing.T) {
	// Three identical 10 ETH swaps over a 5-minute window.
	m, err := ComputeMetrics(swapsFromAmounts(10, 10, 10), 5)
	require.NoError(t, err)

	r, err := testScorer().ComputeScore(m)
	require.NoError(t, err)

	// CV = 0 -> volatility 0; 6 ETH/min -> liquidity 0.94; 3 swaps -> concentration 0.7.
	assert.InDelta(t, 45.7, r.RiskScore, 1e-9)
	assert.Equal(t, LevelMedium, r.RiskLevel)
	assert.InDelta(t, 0.0, r.Components.VolatilityContrib, 1e-9)
	assert.InDelta(t, 28.2, r.Components.LiquidityContrib, 1e-9)
	assert.InDelta(t, 17.5, r.Components.ConcentrationContrib, 1e-9)
	assert.InDelta(t, 0.0, r.NormalizedMetrics.Volatility, 1e-9)
	assert.InDelta(t, 0.94, r.NormalizedMetrics.Liquidity, 1e-9)
	assert.InDelta(t, 0.7, r.NormalizedMetrics.Concentration, 1e-9)
}

func TestComputeScore_NormalizedClamping(t *testing.T) {
	// Inputs far outside the calibration range must still clamp to [0,1].
	cases := []models.VolumeMetrics{
		{VolumeCV: 1000, VolumePerMinute: 1e9, SwapCount: 1000000},
		{VolumeCV: 0, VolumePerMinute: 0, SwapCount: 0},
		{VolumeCV: 0.05, VolumePerMinute: 50, SwapCount: 5},
	}
	s := testScorer()
	for _, m := range cases {
		r, err := s.ComputeScore(&m)
		require.NoError(t, err)
		for _, v := range []float64{
			r.NormalizedMetrics.Volatility,
			r.NormalizedMetrics.Liquidity,
			r.NormalizedMetrics.Concentration,
		} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.GreaterOrEqual(t, r.RiskScore, 0.0)
	}
}

// The weight table defines four factors summing to 1.0, but time_decay is
// never applied, so the worst possible input scores 90, not 100. This test
// pins that known discrepancy; do not "fix" it without a product decision.
func TestComputeScore_MaxScoreIsNinety(t *testing.T) {
	worst := &models.VolumeMetrics{
		VolumeCV:        1000, // saturates volatility
		VolumePerMinute: 0,    // no flow: full liquidity risk
		SwapCount:       0,    // full concentration risk
	}
	r, err := testScorer().ComputeScore(worst)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, r.RiskScore, 1e-9)
	assert.Equal(t, LevelHigh, r.RiskLevel)
}

func TestComputeScore_Deterministic(t *testing.T) {
	m := &models.VolumeMetrics{
		TotalVolumeETH:  42,
		AvgVolumeETH:    4.2,
		VolumeStdETH:    1.3,
		VolumeCV:        0.31,
		SwapCount:       10,
		VolumePerMinute: 8.4,
	}
	s := testScorer()
	a, err := s.ComputeScore(m)
	require.NoError(t, err)
	b, err := s.ComputeScore(m)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLevelBoundaries(t *testing.T) {
	s := testScorer()
	cases := []struct {
		score float64
		level string
	}{
		{0, LevelLow},
		{29.999, LevelLow},
		{30.0, LevelMedium},
		{69.999, LevelMedium},
		{70.0, LevelHigh},
		{90, LevelHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, s.levelFor(tc.score), "score %v", tc.score)
	}
}

func TestComputeScore_ContributionRounding(t *testing.T) {
	m := &models.VolumeMetrics{
		VolumeCV:        0.0333,  // volatility 0.333
		VolumePerMinute: 33.3333, // liquidity 0.666667
		SwapCount:       7,       // concentration 0.3
	}
	r, err := testScorer().ComputeScore(m)
	require.NoError(t, err)

	// Contributions are 2-decimal, normalized values 3-decimal.
	assert.InDelta(t, 11.66, r.Components.VolatilityContrib, 1e-9)
	assert.InDelta(t, 20.0, r.Components.LiquidityContrib, 1e-9)
	assert.InDelta(t, 7.5, r.Components.ConcentrationContrib, 1e-9)
	assert.InDelta(t, 0.333, r.NormalizedMetrics.Volatility, 1e-9)
	assert.InDelta(t, 0.667, r.NormalizedMetrics.Liquidity, 1e-9)
	assert.InDelta(t, 0.3, r.NormalizedMetrics.Concentration, 1e-9)
}

func TestBuildAssessment(t *testing.T) {
	m, err := ComputeMetrics(swapsFromAmounts(10, 10, 10), 5)
	require.NoError(t, err)
	r, err := testScorer().ComputeScore(m)
	require.NoError(t, err)

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a := BuildAssessment(m, r, at)

	assert.Equal(t, "2024-06-01T12:00:00Z", a.Metadata.AssessmentTime)
	assert.Equal(t, ModelVersion, a.Metadata.ModelVersion)
	assert.Equal(t, *m, a.Metrics)
	assert.Equal(t, *r, a.RiskAssessment)
	assert.Contains(t, a.Interpretation.LowRisk, "< 30")
}
