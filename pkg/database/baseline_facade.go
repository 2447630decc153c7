package database

import (
	"context"
	"errors"

	"github.com/perflens/bottleneck-analyzer/pkg/database/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BaselineFacadeInterface defines the database operations for the baseline store
type BaselineFacadeInterface interface {
	// UpsertMetricBaselines replaces the row for (component, metric_name), last write wins
	UpsertMetricBaselines(ctx context.Context, baseline *model.MetricBaselines) error
	// GetMetricBaselinesByKey point-looks-up one baseline, nil when none stored
	GetMetricBaselinesByKey(ctx context.Context, component, metricName string) (*model.MetricBaselines, error)
	// ListMetricBaseliness lists stored baselines, optionally filtered by component
	ListMetricBaseliness(ctx context.Context, component string) ([]*model.MetricBaselines, error)
}

// BaselineFacade implements BaselineFacadeInterface
type BaselineFacade struct {
	BaseFacade
}

// NewBaselineFacade creates a new BaselineFacade instance
func NewBaselineFacade() BaselineFacadeInterface {
	return &BaselineFacade{}
}

func (f *BaselineFacade) UpsertMetricBaselines(ctx context.Context, baseline *model.MetricBaselines) error {
	db := f.getDB().WithContext(ctx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "component"}, {Name: "metric_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"mean", "stddev_value", "p50", "p95", "p99", "sample_count", "computed_at", "updated_at",
		}),
	}).Create(baseline).Error
}

func (f *BaselineFacade) GetMetricBaselinesByKey(ctx context.Context, component, metricName string) (*model.MetricBaselines, error) {
	db := f.getDB().WithContext(ctx)
	var baseline model.MetricBaselines
	err := db.Where("component = ? AND metric_name = ?", component, metricName).First(&baseline).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &baseline, nil
}

func (f *BaselineFacade) ListMetricBaseliness(ctx context.Context, component string) ([]*model.MetricBaselines, error) {
	db := f.getDB().WithContext(ctx)
	query := db.Model(&model.MetricBaselines{})
	if component != "" {
		query = query.Where("component = ?", component)
	}

	var baselines []*model.MetricBaselines
	err := query.Order("component, metric_name").Find(&baselines).Error
	return baselines, err
}
