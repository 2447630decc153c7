package baseline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/database"
	dbmodel "github.com/perflens/bottleneck-analyzer/pkg/database/model"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/module/stats"
)

var (
	// ErrInsufficientSamples is returned when the sample window is smaller
	// than the configured minimum; the caller must supply more data or wait
	ErrInsufficientSamples = errors.New("insufficient samples for baseline computation")
	// ErrNoBaseline is returned when a comparison is requested before any
	// baseline exists; treated as "unknown", not as a bottleneck
	ErrNoBaseline = errors.New("no baseline stored for metric")
)

// Manager computes baselines from sample windows and compares observations
// against the stored ones. Writes are serialized per (component, metric) key;
// a baseline is always recomputed wholesale, never patched incrementally.
type Manager struct {
	minSamples int

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewManager creates a Manager enforcing the given minimum window size
func NewManager(minSamples int) *Manager {
	if minSamples <= 0 {
		minSamples = 5
	}
	return &Manager{
		minSamples: minSamples,
		keyLocks:   map[string]*sync.Mutex{},
	}
}

func (m *Manager) lockFor(component, metric string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := component + "/" + metric
	if l, ok := m.keyLocks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	m.keyLocks[key] = l
	return l
}

// ComputeBaseline derives the statistical summary of one sample window.
// Percentiles use the nearest-rank method so the output is reproducible
// for a fixed window. Fails with ErrInsufficientSamples below the minimum.
func (m *Manager) ComputeBaseline(component, metric string, samples []model.Sample) (*model.Baseline, error) {
	if len(samples) < m.minSamples {
		return nil, ErrInsufficientSamples
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}

	mean := stats.Mean(values)
	return &model.Baseline{
		Component:   component,
		Metric:      metric,
		Mean:        mean,
		StdDev:      stats.StdDev(values, mean),
		P50:         stats.PercentileNearestRank(values, 50),
		P95:         stats.PercentileNearestRank(values, 95),
		P99:         stats.PercentileNearestRank(values, 99),
		SampleCount: len(samples),
		ComputedAt:  time.Now(),
	}, nil
}

// StoreBaseline persists a baseline, last write wins per key
func (m *Manager) StoreBaseline(ctx context.Context, baseline *model.Baseline) error {
	lock := m.lockFor(baseline.Component, baseline.Metric)
	lock.Lock()
	defer lock.Unlock()

	facade := database.GetFacade().GetBaseline()
	return facade.UpsertMetricBaselines(ctx, &dbmodel.MetricBaselines{
		Component:   baseline.Component,
		MetricName:  baseline.Metric,
		Mean:        baseline.Mean,
		StddevValue: baseline.StdDev,
		P50:         baseline.P50,
		P95:         baseline.P95,
		P99:         baseline.P99,
		SampleCount: baseline.SampleCount,
		ComputedAt:  baseline.ComputedAt,
	})
}

// ComputeAndStore recomputes the baseline from a fresh window and persists it
func (m *Manager) ComputeAndStore(ctx context.Context, component, metric string, samples []model.Sample) (*model.Baseline, error) {
	baseline, err := m.ComputeBaseline(component, metric, samples)
	if err != nil {
		return nil, err
	}
	if err := m.StoreBaseline(ctx, baseline); err != nil {
		return nil, err
	}
	log.WithContext(ctx).Infof("Stored baseline for %s/%s: mean=%.4f stddev=%.4f samples=%d",
		component, metric, baseline.Mean, baseline.StdDev, baseline.SampleCount)
	return baseline, nil
}

// GetBaseline looks up the stored baseline for one key
func (m *Manager) GetBaseline(ctx context.Context, component, metric string) (*model.Baseline, error) {
	facade := database.GetFacade().GetBaseline()
	stored, err := facade.GetMetricBaselinesByKey(ctx, component, metric)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrNoBaseline
	}
	return &model.Baseline{
		Component:   stored.Component,
		Metric:      stored.MetricName,
		Mean:        stored.Mean,
		StdDev:      stored.StddevValue,
		P50:         stored.P50,
		P95:         stored.P95,
		P99:         stored.P99,
		SampleCount: stored.SampleCount,
		ComputedAt:  stored.ComputedAt,
	}, nil
}

// CompareToBaseline relates a value to the stored baseline for the key.
// Fails with ErrNoBaseline when none is stored.
func (m *Manager) CompareToBaseline(ctx context.Context, component, metric string, value float64) (*model.Comparison, error) {
	baseline, err := m.GetBaseline(ctx, component, metric)
	if err != nil {
		return nil, err
	}
	comparison := Compare(baseline, value)
	return &comparison, nil
}

// Compare is the pure comparison: the same baseline and value always yield
// the same result. A zero stddev with a deviating value marks the
// comparison extreme instead of producing an infinite z-score.
func Compare(baseline *model.Baseline, value float64) model.Comparison {
	comparison := model.Comparison{
		Value: value,
		Delta: value - baseline.Mean,
	}
	if baseline.Mean != 0 {
		comparison.Ratio = value / baseline.Mean
	}
	if baseline.StdDev == 0 {
		if value != baseline.Mean {
			comparison.Extreme = true
		}
		return comparison
	}
	comparison.ZScore = comparison.Delta / baseline.StdDev
	return comparison
}
