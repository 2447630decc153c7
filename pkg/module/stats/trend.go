package stats

import (
	"github.com/perflens/bottleneck-analyzer/pkg/model"
)

// TrendResult is the outcome of fitting a line through a sample window
type TrendResult struct {
	// Slope is in value units per second
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
	RSquared    float64 `json:"r_squared"`
	SampleCount int     `json:"sample_count"`
	// Confident is set when the fit passes the minimum sample count and
	// R-squared gates
	Confident bool `json:"confident"`
}

// SlopePerMinute converts the fitted slope to value units per minute
func (t TrendResult) SlopePerMinute() float64 {
	return t.Slope * 60
}

// AnalyzeTrend fits a least-squares line of value versus time over the
// window and gates confidence on sample count and R-squared
func AnalyzeTrend(samples []model.Sample, minSamples int, minRSquared float64) TrendResult {
	result := TrendResult{SampleCount: len(samples)}
	if len(samples) < 2 {
		return result
	}

	// Offset times from the first sample to keep the sums small
	t0 := samples[0].Timestamp
	n := float64(len(samples))

	var sumX, sumY, sumXY, sumXX float64
	for _, s := range samples {
		x := float64(s.Timestamp - t0)
		sumX += x
		sumY += s.Value
		sumXY += x * s.Value
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return result
	}

	result.Slope = (n*sumXY - sumX*sumY) / denom
	result.Intercept = (sumY - result.Slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for _, s := range samples {
		x := float64(s.Timestamp - t0)
		predicted := result.Intercept + result.Slope*x
		ssTot += (s.Value - meanY) * (s.Value - meanY)
		ssRes += (s.Value - predicted) * (s.Value - predicted)
	}
	if ssTot > 0 {
		result.RSquared = 1 - ssRes/ssTot
	}

	result.Confident = len(samples) >= minSamples && result.RSquared >= minRSquared
	return result
}
