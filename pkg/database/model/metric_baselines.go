package model

import (
	"time"
)

const TableNameMetricBaselines = "metric_baselines"

// MetricBaselines persists one statistical baseline per (component, metric)
// pair. Rows are replaced wholesale on recomputation, last write wins.
type MetricBaselines struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	Component   string    `gorm:"column:component;not null;uniqueIndex:idx_component_metric" json:"component"`
	MetricName  string    `gorm:"column:metric_name;not null;uniqueIndex:idx_component_metric" json:"metric_name"`
	Mean        float64   `gorm:"column:mean;type:decimal(20,6);not null" json:"mean"`
	StddevValue float64   `gorm:"column:stddev_value;type:decimal(20,6);not null" json:"stddev_value"`
	P50         float64   `gorm:"column:p50;type:decimal(20,6)" json:"p50"`
	P95         float64   `gorm:"column:p95;type:decimal(20,6)" json:"p95"`
	P99         float64   `gorm:"column:p99;type:decimal(20,6)" json:"p99"`
	SampleCount int       `gorm:"column:sample_count;not null;default:0" json:"sample_count"`
	ComputedAt  time.Time `gorm:"column:computed_at;not null" json:"computed_at"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (*MetricBaselines) TableName() string {
	return TableNameMetricBaselines
}
