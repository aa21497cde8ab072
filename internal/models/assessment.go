package models

// VolumeMetrics is the aggregate view of a window of swaps. Created fresh
// per pipeline run and never mutated afterwards.
type VolumeMetrics struct {
	TotalVolumeETH   float64 `json:"total_volume_eth"`
	AvgVolumeETH     float64 `json:"avg_volume_eth"`
	VolumeStdETH     float64 `json:"volume_std_eth"`
	VolumeCV         float64 `json:"volume_cv"`
	SwapCount        int     `json:"swap_count"`
	TimeRangeMinutes float64 `json:"time_range_minutes"`
	VolumePerMinute  float64 `json:"volume_per_minute"`
}

// RiskComponents holds the weighted contribution of each factor to the
// final score, rounded to 2 decimals for explainability.
type RiskComponents struct {
	VolatilityContrib    float64 `json:"volatility_contrib"`
	LiquidityContrib     float64 `json:"liquidity_contrib"`
	ConcentrationContrib float64 `json:"concentration_contrib"`
}

// NormalizedMetrics are the clamped [0,1] sub-scores, rounded to 3 decimals.
type NormalizedMetrics struct {
	Volatility    float64 `json:"volatility"`
	Liquidity     float64 `json:"liquidity"`
	Concentration float64 `json:"concentration"`
}

// RiskAssessment is the scored result: a 0-100 value, a discrete level and
// the per-factor breakdown behind it.
type RiskAssessment struct {
	RiskScore         float64           `json:"risk_score"`
	RiskLevel         string            `json:"risk_level"`
	Timestamp         string            `json:"timestamp"`
	Components        RiskComponents    `json:"components"`
	NormalizedMetrics NormalizedMetrics `json:"normalized_metrics"`
}

// AssessmentMetadata describes when and with which model an assessment
// was produced.
type AssessmentMetadata struct {
	AssessmentTime string `json:"assessment_time"`
	ModelVersion   string `json:"model_version"`
}

// Interpretation is the static human-readable explanation of the score bands.
type Interpretation struct {
	LowRisk    string `json:"low_risk"`
	MediumRisk string `json:"medium_risk"`
	HighRisk   string `json:"high_risk"`
}

// Assessment is the pipeline's durable output envelope.
type Assessment struct {
	Metadata       AssessmentMetadata `json:"metadata"`
	Metrics        VolumeMetrics      `json:"metrics"`
	RiskAssessment RiskAssessment     `json:"risk_assessment"`
	Interpretation Interpretation     `json:"interpretation"`
}
