package model

import (
	"time"
)

const TableNameAnalysisReports = "analysis_reports"

// AnalysisReports keeps the per-pass report history used by trend charts
type AnalysisReports struct {
	RunID           string    `gorm:"column:run_id;primaryKey" json:"run_id"`
	StartedAt       time.Time `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt      time.Time `gorm:"column:finished_at;not null" json:"finished_at"`
	HealthScore     float64   `gorm:"column:health_score;type:decimal(6,2);not null" json:"health_score"`
	BottleneckCount int       `gorm:"column:bottleneck_count;not null;default:0" json:"bottleneck_count"`
	CriticalCount   int       `gorm:"column:critical_count;not null;default:0" json:"critical_count"`
	WarningCount    int       `gorm:"column:warning_count;not null;default:0" json:"warning_count"`
	GapCount        int       `gorm:"column:gap_count;not null;default:0" json:"gap_count"`
	Payload         ExtType   `gorm:"column:payload" json:"payload"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}

func (*AnalysisReports) TableName() string {
	return TableNameAnalysisReports
}
