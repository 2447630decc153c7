package stats

import (
	"math"
	"sort"
)

const (
	// Anomaly strategies
	StrategyZScore = "zscore"
	StrategyMAD    = "mad"

	// Scale factor that makes MAD comparable with a standard deviation
	// for normally distributed data
	madScale = 1.4826
)

// AnomalyScore is the strategy-specific deviation measure for one value
type AnomalyScore struct {
	Score   float64 `json:"score"`
	Flagged bool    `json:"flagged"`
	// Extreme is set when the dispersion of the window is zero and the
	// value still deviates, where the score would be infinite
	Extreme bool `json:"extreme"`
}

// ZScoreAnomaly flags value when |value - mean| / stddev exceeds threshold.
// Pure function over the window.
func ZScoreAnomaly(window []float64, value float64, threshold float64) AnomalyScore {
	if len(window) == 0 {
		return AnomalyScore{}
	}
	mean := Mean(window)
	stddev := StdDev(window, mean)
	if stddev == 0 {
		if value == mean {
			return AnomalyScore{}
		}
		return AnomalyScore{Flagged: true, Extreme: true}
	}
	score := math.Abs(value-mean) / stddev
	return AnomalyScore{Score: score, Flagged: score > threshold}
}

// MADAnomaly flags value when |value - median| / (1.4826 * MAD) exceeds
// threshold. Preferred over the z-score for non-normal distributions since
// the median absolute deviation is robust to outliers in the window itself.
func MADAnomaly(window []float64, value float64, threshold float64) AnomalyScore {
	if len(window) == 0 {
		return AnomalyScore{}
	}
	median := Median(window)
	deviations := make([]float64, len(window))
	for i, v := range window {
		deviations[i] = math.Abs(v - median)
	}
	mad := Median(deviations)
	if mad == 0 {
		if value == median {
			return AnomalyScore{}
		}
		return AnomalyScore{Flagged: true, Extreme: true}
	}
	score := math.Abs(value-median) / (madScale * mad)
	return AnomalyScore{Score: score, Flagged: score > threshold}
}

// DetectAnomaly dispatches to the configured strategy, defaulting to z-score
func DetectAnomaly(strategy string, window []float64, value float64, threshold float64) AnomalyScore {
	switch strategy {
	case StrategyMAD:
		return MADAnomaly(window, value, threshold)
	default:
		return ZScoreAnomaly(window, value, threshold)
	}
}

// Mean returns the arithmetic mean of values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation around the given mean
func StdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return math.Sqrt(sum / float64(len(values)))
}

// Median returns the middle value, averaging the two middle values for
// even-sized inputs
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// PercentileNearestRank returns the p-th percentile (0 < p <= 100) using
// the nearest-rank method, so the result is always an observed value and
// repeated calls on the same window are deterministic
func PercentileNearestRank(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
