package risk

// Weights are the fixed factor weights used by the scorer. The four named
// factors sum to 1.0 but TimeDecay is not applied in the current formula,
// so the maximum achievable score is 90, not 100. That behavior is kept
// on purpose until product decides otherwise; see the max-score test.
type Weights struct {
	VolumeVolatility  float64 // swap volume changes
	LiquidityDepth    float64 // available liquidity
	ConcentrationRisk float64 // whale concentration
	TimeDecay         float64 // recency weighting (reserved, unused)
}

// DefaultWeights returns the calibrated factor weights.
func DefaultWeights() Weights {
	return Weights{
		VolumeVolatility:  0.35,
		LiquidityDepth:    0.30,
		ConcentrationRisk: 0.25,
		TimeDecay:         0.10,
	}
}

// Calibration holds the normalization ceilings and score thresholds.
// Defaults mirror the hand-tuned values the scorer was built with; they are
// configuration so tests and deployments can recalibrate without edits.
type Calibration struct {
	// VolatilityScale multiplies the coefficient of variation before
	// clamping; a CV of 1/VolatilityScale saturates the sub-score.
	VolatilityScale float64

	// HealthyVolumePerMinute is the ETH/min flow treated as fully healthy
	// liquidity; anything at or above it scores zero liquidity risk.
	HealthyVolumePerMinute float64

	// HealthySwapCount is the swap count treated as fully diversified;
	// anything at or above it scores zero concentration risk.
	HealthySwapCount float64

	// MediumThreshold and HighThreshold split the 0-100 score into
	// LOW < MediumThreshold <= MEDIUM < HighThreshold <= HIGH.
	MediumThreshold float64
	HighThreshold   float64

	// DefaultWindowMinutes is the observation window used when the caller
	// does not supply one.
	DefaultWindowMinutes float64
}

// DefaultCalibration returns the calibration the scorer ships with.
func DefaultCalibration() Calibration {
	return Calibration{
		VolatilityScale:        10,
		HealthyVolumePerMinute: 100,
		HealthySwapCount:       10,
		MediumThreshold:        30,
		HighThreshold:          70,
		DefaultWindowMinutes:   5,
	}
}

// ModelVersion identifies the scoring formula in assessment metadata.
const ModelVersion = "v0.1-basic"
