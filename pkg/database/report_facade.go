package database

import (
	"context"
	"errors"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/database/model"
	"gorm.io/gorm"
)

// ReportFacadeInterface defines the database operations for report history
type ReportFacadeInterface interface {
	CreateAnalysisReports(ctx context.Context, report *model.AnalysisReports) error
	GetAnalysisReportsByRunID(ctx context.Context, runID string) (*model.AnalysisReports, error)
	ListAnalysisReportss(ctx context.Context, filter *AnalysisReportsFilter) ([]*model.AnalysisReports, int64, error)
	DeleteOldAnalysisReportss(ctx context.Context, before time.Time) error
}

// AnalysisReportsFilter defines filter conditions for querying report history
type AnalysisReportsFilter struct {
	StartedAfter  *time.Time
	StartedBefore *time.Time
	Offset        int
	Limit         int
}

// ReportFacade implements ReportFacadeInterface
type ReportFacade struct {
	BaseFacade
}

// NewReportFacade creates a new ReportFacade instance
func NewReportFacade() ReportFacadeInterface {
	return &ReportFacade{}
}

func (f *ReportFacade) CreateAnalysisReports(ctx context.Context, report *model.AnalysisReports) error {
	db := f.getDB().WithContext(ctx)
	return db.Create(report).Error
}

func (f *ReportFacade) GetAnalysisReportsByRunID(ctx context.Context, runID string) (*model.AnalysisReports, error) {
	db := f.getDB().WithContext(ctx)
	var report model.AnalysisReports
	err := db.Where("run_id = ?", runID).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (f *ReportFacade) ListAnalysisReportss(ctx context.Context, filter *AnalysisReportsFilter) ([]*model.AnalysisReports, int64, error) {
	db := f.getDB().WithContext(ctx)
	query := db.Model(&model.AnalysisReports{})

	if filter.StartedAfter != nil {
		query = query.Where("started_at >= ?", *filter.StartedAfter)
	}
	if filter.StartedBefore != nil {
		query = query.Where("started_at < ?", *filter.StartedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []*model.AnalysisReports
	query = query.Order("started_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	err := query.Find(&reports).Error
	return reports, total, err
}

func (f *ReportFacade) DeleteOldAnalysisReportss(ctx context.Context, before time.Time) error {
	db := f.getDB().WithContext(ctx)
	return db.Where("started_at < ?", before).Delete(&model.AnalysisReports{}).Error
}
