package risk

import (
	"errors"
	"math"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/models"
)

// ErrInsufficientData is returned when fewer than 2 swaps are supplied;
// volatility is undefined with fewer than two samples. Callers must treat
// it as "cannot proceed", not as a crash.
var ErrInsufficientData = errors.New("insufficient swap data for volatility calculation")

// ComputeMetrics derives aggregate volume statistics from a window of
// swaps. windowMinutes must be positive; values <= 0 fall back to the
// default observation window. Pure function: no side effects, never
// returns a partially populated result.
func ComputeMetrics(swaps []models.SwapRecord, windowMinutes float64) (*models.VolumeMetrics, error) {
	if len(swaps) < 2 {
		return nil, ErrInsufficientData
	}
	if windowMinutes <= 0 {
		windowMinutes = DefaultCalibration().DefaultWindowMinutes
	}

	amounts := make([]float64, len(swaps))
	for i, s := range swaps {
		amounts[i] = s.EthAmount
	}

	total := 0.0
	for _, a := range amounts {
		total += a
	}
	mean := total / float64(len(amounts))
	stddev := populationStddev(amounts, mean)

	cv := 0.0
	if mean > 0 {
		cv = stddev / mean
	}

	return &models.VolumeMetrics{
		TotalVolumeETH:   total,
		AvgVolumeETH:     mean,
		VolumeStdETH:     stddev,
		VolumeCV:         cv,
		SwapCount:        len(swaps),
		TimeRangeMinutes: windowMinutes,
		VolumePerMinute:  total / windowMinutes,
	}, nil
}

// populationStddev is the biased (population) standard deviation, matching
// the original calibration. Returns 0 for fewer than 2 values.
func populationStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n))
}
