package risk

import (
	"time"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/models"
)

// BuildAssessment wraps metrics and a scored result into the durable
// assessment envelope.
func BuildAssessment(m *models.VolumeMetrics, r *models.RiskAssessment, at time.Time) *models.Assessment {
	return &models.Assessment{
		Metadata: models.AssessmentMetadata{
			AssessmentTime: at.UTC().Format(time.RFC3339),
			ModelVersion:   ModelVersion,
		},
		Metrics:        *m,
		RiskAssessment: *r,
		Interpretation: DefaultInterpretation(),
	}
}

// DefaultInterpretation returns the static threshold explanation included
// with every assessment.
func DefaultInterpretation() models.Interpretation {
	return models.Interpretation{
		LowRisk:    "< 30: Normal market activity",
		MediumRisk: "30-70: Elevated monitoring recommended",
		HighRisk:   "> 70: Potential risk event",
	}
}
