package model

import "time"

const (
	ComponentStatusOK       = "ok"
	ComponentStatusWarning  = "warning"
	ComponentStatusCritical = "critical"
	ComponentStatusUnknown  = "unknown"
)

// ComponentStatus summarizes one component for dashboard consumers
type ComponentStatus struct {
	Component   string             `json:"component"`
	Status      string             `json:"status"`
	Bottlenecks []BottleneckResult `json:"bottlenecks,omitempty"`
}

// DashboardData is a consumer-agnostic projection of one report plus
// historical baseline context
type DashboardData struct {
	RunID          string            `json:"run_id"`
	GeneratedAt    time.Time         `json:"generated_at"`
	HealthScore    float64           `json:"health_score"`
	SeverityCounts map[string]int    `json:"severity_counts"`
	Components     []ComponentStatus `json:"components"`
	Gaps           []DetectorGap     `json:"gaps,omitempty"`
	Baselines      []Baseline        `json:"baselines,omitempty"`
}

// ChartSeries is one named line on a trend chart
type ChartSeries struct {
	Name    string   `json:"name"`
	Samples []Sample `json:"samples"`
}

// ChartData feeds a trend chart: the live series next to its baseline bands
type ChartData struct {
	Series []ChartSeries `json:"series"`
}
