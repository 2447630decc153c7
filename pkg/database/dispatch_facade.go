package database

import (
	"context"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/database/model"
)

// DispatchFacadeInterface defines the database operations for dispatch records
type DispatchFacadeInterface interface {
	CreateAlertDispatches(ctx context.Context, dispatch *model.AlertDispatches) error
	UpdateAlertDispatches(ctx context.Context, dispatch *model.AlertDispatches) error
	// GetLastSentDispatch returns the newest successful dispatch for the
	// (component, metric, severity, channel) key, nil when none exists
	GetLastSentDispatch(ctx context.Context, component, metricName, severity, channel string) (*model.AlertDispatches, error)
	ListAlertDispatchess(ctx context.Context, filter *AlertDispatchesFilter) ([]*model.AlertDispatches, int64, error)
	DeleteOldAlertDispatchess(ctx context.Context, before time.Time) error
}

// AlertDispatchesFilter defines filter conditions for querying dispatch records
type AlertDispatchesFilter struct {
	RunID      *string
	Component  *string
	MetricName *string
	Severity   *string
	Channel    *string
	Outcome    *string
	SentAfter  *time.Time
	Offset     int
	Limit      int
}

// DispatchFacade implements DispatchFacadeInterface
type DispatchFacade struct {
	BaseFacade
}

// NewDispatchFacade creates a new DispatchFacade instance
func NewDispatchFacade() DispatchFacadeInterface {
	return &DispatchFacade{}
}

func (f *DispatchFacade) CreateAlertDispatches(ctx context.Context, dispatch *model.AlertDispatches) error {
	db := f.getDB().WithContext(ctx)
	return db.Create(dispatch).Error
}

func (f *DispatchFacade) UpdateAlertDispatches(ctx context.Context, dispatch *model.AlertDispatches) error {
	db := f.getDB().WithContext(ctx)
	return db.Save(dispatch).Error
}

func (f *DispatchFacade) GetLastSentDispatch(ctx context.Context, component, metricName, severity, channel string) (*model.AlertDispatches, error) {
	db := f.getDB().WithContext(ctx)
	var dispatches []*model.AlertDispatches
	err := db.Where("component = ? AND metric_name = ? AND severity = ? AND channel = ? AND outcome = ?",
		component, metricName, severity, channel, model.DispatchOutcomeSent).
		Order("sent_at DESC").Limit(1).Find(&dispatches).Error
	if err != nil {
		return nil, err
	}
	if len(dispatches) == 0 {
		return nil, nil
	}
	return dispatches[0], nil
}

func (f *DispatchFacade) ListAlertDispatchess(ctx context.Context, filter *AlertDispatchesFilter) ([]*model.AlertDispatches, int64, error) {
	db := f.getDB().WithContext(ctx)
	query := db.Model(&model.AlertDispatches{})

	if filter.RunID != nil {
		query = query.Where("run_id = ?", *filter.RunID)
	}
	if filter.Component != nil {
		query = query.Where("component = ?", *filter.Component)
	}
	if filter.MetricName != nil {
		query = query.Where("metric_name = ?", *filter.MetricName)
	}
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}
	if filter.Channel != nil {
		query = query.Where("channel = ?", *filter.Channel)
	}
	if filter.Outcome != nil {
		query = query.Where("outcome = ?", *filter.Outcome)
	}
	if filter.SentAfter != nil {
		query = query.Where("sent_at >= ?", *filter.SentAfter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var dispatches []*model.AlertDispatches
	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	err := query.Find(&dispatches).Error
	return dispatches, total, err
}

func (f *DispatchFacade) DeleteOldAlertDispatchess(ctx context.Context, before time.Time) error {
	db := f.getDB().WithContext(ctx)
	return db.Where("created_at < ?", before).Delete(&model.AlertDispatches{}).Error
}
