package database

import (
	"context"
	"sync"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/database/model"
)

// MockFacade is an in-memory FacadeInterface implementation for testing
type MockFacade struct {
	BaselineMock *MockBaselineFacade
	DispatchMock *MockDispatchFacade
	ReportMock   *MockReportFacade
}

// NewMockFacade creates a new MockFacade with empty in-memory stores
func NewMockFacade() *MockFacade {
	return &MockFacade{
		BaselineMock: NewMockBaselineFacade(),
		DispatchMock: NewMockDispatchFacade(),
		ReportMock:   NewMockReportFacade(),
	}
}

func (m *MockFacade) GetBaseline() BaselineFacadeInterface { return m.BaselineMock }
func (m *MockFacade) GetDispatch() DispatchFacadeInterface { return m.DispatchMock }
func (m *MockFacade) GetReport() ReportFacadeInterface     { return m.ReportMock }

// MockBaselineFacade stores baselines keyed by (component, metric)
type MockBaselineFacade struct {
	mu        sync.RWMutex
	baselines map[string]*model.MetricBaselines
	// UpsertErr forces Upsert failures when set
	UpsertErr error
}

func NewMockBaselineFacade() *MockBaselineFacade {
	return &MockBaselineFacade{baselines: map[string]*model.MetricBaselines{}}
}

func baselineKey(component, metricName string) string {
	return component + "/" + metricName
}

func (m *MockBaselineFacade) UpsertMetricBaselines(ctx context.Context, baseline *model.MetricBaselines) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *baseline
	m.baselines[baselineKey(baseline.Component, baseline.MetricName)] = &copied
	return nil
}

func (m *MockBaselineFacade) GetMetricBaselinesByKey(ctx context.Context, component, metricName string) (*model.MetricBaselines, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.baselines[baselineKey(component, metricName)]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, nil
}

func (m *MockBaselineFacade) ListMetricBaseliness(ctx context.Context, component string) ([]*model.MetricBaselines, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*model.MetricBaselines
	for _, b := range m.baselines {
		if component == "" || b.Component == component {
			copied := *b
			result = append(result, &copied)
		}
	}
	return result, nil
}

// MockDispatchFacade records dispatches in memory
type MockDispatchFacade struct {
	mu         sync.Mutex
	Dispatches []*model.AlertDispatches
	nextID     int64
}

func NewMockDispatchFacade() *MockDispatchFacade {
	return &MockDispatchFacade{}
}

func (m *MockDispatchFacade) CreateAlertDispatches(ctx context.Context, dispatch *model.AlertDispatches) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	dispatch.ID = m.nextID
	m.Dispatches = append(m.Dispatches, dispatch)
	return nil
}

func (m *MockDispatchFacade) UpdateAlertDispatches(ctx context.Context, dispatch *model.AlertDispatches) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.Dispatches {
		if d.ID == dispatch.ID {
			m.Dispatches[i] = dispatch
			return nil
		}
	}
	m.Dispatches = append(m.Dispatches, dispatch)
	return nil
}

func (m *MockDispatchFacade) GetLastSentDispatch(ctx context.Context, component, metricName, severity, channel string) (*model.AlertDispatches, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *model.AlertDispatches
	for _, d := range m.Dispatches {
		if d.Component == component && d.MetricName == metricName &&
			d.Severity == severity && d.Channel == channel &&
			d.Outcome == model.DispatchOutcomeSent {
			if last == nil || d.SentAt.After(last.SentAt) {
				last = d
			}
		}
	}
	return last, nil
}

func (m *MockDispatchFacade) ListAlertDispatchess(ctx context.Context, filter *AlertDispatchesFilter) ([]*model.AlertDispatches, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.AlertDispatches
	for _, d := range m.Dispatches {
		if filter != nil {
			if filter.Component != nil && d.Component != *filter.Component {
				continue
			}
			if filter.Severity != nil && d.Severity != *filter.Severity {
				continue
			}
			if filter.Outcome != nil && d.Outcome != *filter.Outcome {
				continue
			}
			if filter.Channel != nil && d.Channel != *filter.Channel {
				continue
			}
		}
		result = append(result, d)
	}
	return result, int64(len(result)), nil
}

func (m *MockDispatchFacade) DeleteOldAlertDispatchess(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Dispatches[:0]
	for _, d := range m.Dispatches {
		if !d.CreatedAt.Before(before) {
			kept = append(kept, d)
		}
	}
	m.Dispatches = kept
	return nil
}

// MockReportFacade stores report rows in memory
type MockReportFacade struct {
	mu      sync.Mutex
	Reports []*model.AnalysisReports
}

func NewMockReportFacade() *MockReportFacade {
	return &MockReportFacade{}
}

func (m *MockReportFacade) CreateAnalysisReports(ctx context.Context, report *model.AnalysisReports) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reports = append(m.Reports, report)
	return nil
}

func (m *MockReportFacade) GetAnalysisReportsByRunID(ctx context.Context, runID string) (*model.AnalysisReports, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Reports {
		if r.RunID == runID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *MockReportFacade) ListAnalysisReportss(ctx context.Context, filter *AnalysisReportsFilter) ([]*model.AnalysisReports, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := append([]*model.AnalysisReports{}, m.Reports...)
	return result, int64(len(result)), nil
}

func (m *MockReportFacade) DeleteOldAnalysisReportss(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Reports[:0]
	for _, r := range m.Reports {
		if !r.StartedAt.Before(before) {
			kept = append(kept, r)
		}
	}
	m.Reports = kept
	return nil
}
