package model

import "time"

const (
	// Severity levels; critical always implies the warning condition holds
	SeverityWarning  = "warning"
	SeverityCritical = "critical"

	// Component names
	ComponentDatabase = "database"
	ComponentMemory   = "memory"
	ComponentCPU      = "cpu"
	ComponentNetwork  = "network"

	// Bottleneck types
	BottleneckDBQuerySlow      = "DB_QUERY_SLOW"
	BottleneckDBPoolSaturated  = "DB_POOL_SATURATED"
	BottleneckDBLockContention = "DB_LOCK_CONTENTION"
	BottleneckDBDeadlock       = "DB_DEADLOCK"
	BottleneckMemoryCritical   = "MEMORY_CRITICAL"
	BottleneckMemoryLeak       = "MEMORY_LEAK"
	BottleneckCacheGrowth      = "CACHE_GROWTH"
	BottleneckCPUHigh          = "CPU_HIGH"
	BottleneckCPUSustained     = "CPU_SUSTAINED"
	BottleneckResourcePressure = "RESOURCE_PRESSURE"
)

// BaselineRef is the baseline context attached to a result at detection time
type BaselineRef struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"stddev"`
	P95         float64 `json:"p95"`
	ZScore      float64 `json:"z_score"`
	SampleCount int     `json:"sample_count"`
}

// BottleneckResult is one classified condition found by a detector.
// It is created once and read-only downstream.
type BottleneckResult struct {
	ID            string       `json:"id"`
	Type          string       `json:"type"`
	Component     string       `json:"component"`
	Metric        string       `json:"metric"`
	Severity      string       `json:"severity"`
	ObservedValue float64      `json:"observed_value"`
	Baseline      *BaselineRef `json:"baseline,omitempty"`
	DetectedAt    time.Time    `json:"detected_at"`
	Description   string       `json:"description"`
	RunbookRef    string       `json:"runbook_ref,omitempty"`
}

// DetectorGap records a detector that could not produce results this pass
type DetectorGap struct {
	Detector  string `json:"detector"`
	Component string `json:"component"`
	Reason    string `json:"reason"`
}

// CorrelationFinding reports components whose pressure co-occurred in one pass
type CorrelationFinding struct {
	Components  []string `json:"components"`
	Description string   `json:"description"`
}

// Report is the immutable output of one analysis pass
type Report struct {
	RunID        string               `json:"run_id"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   time.Time            `json:"finished_at"`
	Bottlenecks  []BottleneckResult   `json:"bottlenecks_found"`
	Gaps         []DetectorGap        `json:"gaps,omitempty"`
	Correlations []CorrelationFinding `json:"correlations,omitempty"`
	HealthScore  float64              `json:"health_score"`
}

// CountBySeverity tallies results per severity level
func (r *Report) CountBySeverity() map[string]int {
	counts := map[string]int{}
	for _, b := range r.Bottlenecks {
		counts[b.Severity]++
	}
	return counts
}
