package model

import "time"

// Baseline is the statistical summary of historical values for one
// (component, metric) pair. It is recomputed wholesale from a fresh
// sample window, never patched incrementally.
type Baseline struct {
	Component   string    `json:"component"`
	Metric      string    `json:"metric"`
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"stddev"`
	P50         float64   `json:"p50"`
	P95         float64   `json:"p95"`
	P99         float64   `json:"p99"`
	SampleCount int       `json:"sample_count"`
	ComputedAt  time.Time `json:"computed_at"`
}

// Comparison relates one observed value to a stored baseline.
// Extreme is set when stddev is zero and the value deviates from the
// mean, where the z-score would otherwise be infinite.
type Comparison struct {
	Value   float64 `json:"value"`
	Delta   float64 `json:"delta"`
	Ratio   float64 `json:"ratio"`
	ZScore  float64 `json:"z_score"`
	Extreme bool    `json:"extreme"`
}
