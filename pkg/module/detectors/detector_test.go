package detectors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/database"
	"github.com/perflens/bottleneck-analyzer/pkg/metricsource"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
)

type fakeSource struct {
	instant map[string]float64
	ranges  map[string][]model.Sample
	errs    map[string]error
}

func (f *fakeSource) QueryInstant(ctx context.Context, query string) (float64, bool, error) {
	if err, ok := f.errs[query]; ok {
		return 0, false, err
	}
	value, ok := f.instant[query]
	return value, ok, nil
}

func (f *fakeSource) QueryRange(ctx context.Context, query string, start, end time.Time, stepSeconds int) ([]model.MetricsSeries, error) {
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	samples, ok := f.ranges[query]
	if !ok {
		return nil, nil
	}
	return []model.MetricsSeries{{Samples: samples}}, nil
}

func flatSamples(count int, value float64) []model.Sample {
	samples := make([]model.Sample, count)
	for i := range samples {
		samples[i] = model.Sample{Timestamp: int64(i * 30), Value: value}
	}
	return samples
}

func testConfig() *config.Config {
	return &config.Config{
		Thresholds: config.ThresholdConfig{
			Database: config.DatabaseThresholds{
				QueryLatencyP95Ms: config.ThresholdPair{Warning: 100, Critical: 500},
				LockWaitMs:        config.ThresholdPair{Warning: 50, Critical: 200},
			},
			Network: config.NetworkThresholds{
				Dependencies: map[string]config.ThresholdPair{
					"payment-api": {Warning: 200, Critical: 1000},
				},
			},
		},
	}
}

func newTestDetectorEnv() (*config.Config, *baseline.Manager) {
	database.SetFacade(database.NewMockFacade())
	cfg := testConfig()
	return cfg, baseline.NewManager(cfg.Analysis.GetMinSamples())
}

func TestDatabaseDetectorQueryLatency(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	detector := NewDatabaseDetector(cfg, baselines)

	tests := []struct {
		name     string
		latency  float64
		severity string
		breached bool
	}{
		{"below warning", 50, "", false},
		{"warning", 150, model.SeverityWarning, true},
		{"critical", 600, model.SeverityCritical, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{instant: map[string]float64{dbQueryLatencyQuery: tt.latency}}
			results, err := detector.Detect(context.Background(), source, cfg.Thresholds)
			require.NoError(t, err)
			if !tt.breached {
				assert.Empty(t, results)
				return
			}
			require.Len(t, results, 1)
			assert.Equal(t, model.BottleneckDBQuerySlow, results[0].Type)
			assert.Equal(t, tt.severity, results[0].Severity)
			assert.Equal(t, tt.latency, results[0].ObservedValue)
		})
	}
}

func TestDatabaseDetectorPoolSaturation(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	detector := NewDatabaseDetector(cfg, baselines)

	source := &fakeSource{instant: map[string]float64{dbPoolQuery: 0.92}}
	results, err := detector.Detect(context.Background(), source, cfg.Thresholds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.BottleneckDBPoolSaturated, results[0].Type)
	assert.Equal(t, model.SeverityCritical, results[0].Severity)
}

func TestDatabaseDetectorDeadlockDelta(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	detector := NewDatabaseDetector(cfg, baselines)
	ctx := context.Background()

	// first observation only seeds the counter state
	source := &fakeSource{instant: map[string]float64{dbDeadlockQuery: 4}}
	results, err := detector.Detect(ctx, source, cfg.Thresholds)
	require.NoError(t, err)
	assert.Empty(t, results)

	source.instant[dbDeadlockQuery] = 6
	results, err = detector.Detect(ctx, source, cfg.Thresholds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.BottleneckDBDeadlock, results[0].Type)
	assert.Equal(t, model.SeverityCritical, results[0].Severity)
	assert.Equal(t, float64(2), results[0].ObservedValue)

	// counter reset reads as zero delta
	source.instant[dbDeadlockQuery] = 1
	results, err = detector.Detect(ctx, source, cfg.Thresholds)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDatabaseDetectorFetchError(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	detector := NewDatabaseDetector(cfg, baselines)

	source := &fakeSource{errs: map[string]error{dbQueryLatencyQuery: metricsource.ErrUnavailable}}
	_, err := detector.Detect(context.Background(), source, cfg.Thresholds)
	assert.ErrorIs(t, err, metricsource.ErrUnavailable)
}

func TestCPUDetectorSustainedLoad(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	cfg.Thresholds.CPU.SustainedPolls = 5
	detector := NewCPUDetector(cfg, baselines)

	source := &fakeSource{
		instant: map[string]float64{cpuUsedPercentQuery: 85},
		ranges:  map[string][]model.Sample{cpuUsedPercentQuery: flatSamples(6, 85)},
	}
	results, err := detector.Detect(context.Background(), source, cfg.Thresholds)
	require.NoError(t, err)
	require.Len(t, results, 2)

	types := []string{results[0].Type, results[1].Type}
	assert.Contains(t, types, model.BottleneckCPUHigh)
	assert.Contains(t, types, model.BottleneckCPUSustained)
	for _, r := range results {
		assert.Equal(t, model.SeverityWarning, r.Severity)
	}
}

func TestCPUDetectorSpikeIsNotSustained(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	cfg.Thresholds.CPU.SustainedPolls = 5
	detector := NewCPUDetector(cfg, baselines)

	samples := flatSamples(6, 85)
	samples[4].Value = 40
	source := &fakeSource{
		instant: map[string]float64{cpuUsedPercentQuery: 85},
		ranges:  map[string][]model.Sample{cpuUsedPercentQuery: samples},
	}
	results, err := detector.Detect(context.Background(), source, cfg.Thresholds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.BottleneckCPUHigh, results[0].Type)
}

func TestCPUDetectorSustainedUsesPassedThresholds(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	cfg.Thresholds.CPU.SustainedPolls = 7
	detector := NewCPUDetector(cfg, baselines)

	// the per-pass snapshot wins over the config held by the detector
	snapshot := cfg.Thresholds
	snapshot.CPU.SustainedPolls = 3
	source := &fakeSource{
		instant: map[string]float64{cpuUsedPercentQuery: 85},
		ranges:  map[string][]model.Sample{cpuUsedPercentQuery: flatSamples(3, 85)},
	}
	results, err := detector.Detect(context.Background(), source, snapshot)
	require.NoError(t, err)
	require.Len(t, results, 2)

	types := []string{results[0].Type, results[1].Type}
	assert.Contains(t, types, model.BottleneckCPUSustained)
}

func TestMemoryDetectorUsage(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	detector := NewMemoryDetector(cfg, baselines)

	source := &fakeSource{instant: map[string]float64{memUsedPercentQuery: 96.5}}
	results, err := detector.Detect(context.Background(), source, cfg.Thresholds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.BottleneckMemoryCritical, results[0].Type)
	assert.Equal(t, model.SeverityCritical, results[0].Severity)
}

func TestMemoryDetectorLeakTrend(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	detector := NewMemoryDetector(cfg, baselines)

	// 3 MiB/min of perfectly linear heap growth
	samples := make([]model.Sample, 10)
	for i := range samples {
		samples[i] = model.Sample{Timestamp: int64(i * 60), Value: float64(100<<20 + i*3<<20)}
	}
	source := &fakeSource{
		instant: map[string]float64{memUsedPercentQuery: 60},
		ranges:  map[string][]model.Sample{memHeapBytesQuery: samples},
	}
	results, err := detector.Detect(context.Background(), source, cfg.Thresholds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.BottleneckMemoryLeak, results[0].Type)
	assert.Equal(t, model.SeverityWarning, results[0].Severity)
}

func TestMemoryDetectorCacheGrowth(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	detector := NewMemoryDetector(cfg, baselines)

	growing := make([]model.Sample, 8)
	for i := range growing {
		growing[i] = model.Sample{Timestamp: int64(i * 30), Value: float64(1000 + i*500)}
	}
	source := &fakeSource{
		instant: map[string]float64{
			memUsedPercentQuery: 60,
			memCacheHitQuery:    0.4,
		},
		ranges: map[string][]model.Sample{memCacheSizeQuery: growing},
	}
	results, err := detector.Detect(context.Background(), source, cfg.Thresholds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.BottleneckCacheGrowth, results[0].Type)

	// healthy hit rate keeps a growing cache quiet
	source.instant[memCacheHitQuery] = 0.95
	results, err = detector.Detect(context.Background(), source, cfg.Thresholds)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNetworkDetectorPerDependency(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	detector := NewNetworkDetector(cfg, baselines)

	query := fmt.Sprintf(netLatencyQueryTemplate, "payment-api")
	source := &fakeSource{instant: map[string]float64{query: 350}}
	results, err := detector.Detect(context.Background(), source, cfg.Thresholds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "PAYMENT_API_LATENCY_HIGH", results[0].Type)
	assert.Equal(t, model.SeverityWarning, results[0].Severity)
	assert.Equal(t, "payment-api_latency_ms", results[0].Metric)
}

func TestDetectorResultAttachesBaseline(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	detector := NewDatabaseDetector(cfg, baselines)
	ctx := context.Background()

	_, err := baselines.ComputeAndStore(ctx, model.ComponentDatabase, dbQueryLatencyMetric,
		[]model.Sample{{Value: 10}, {Value: 12}, {Value: 11}, {Value: 13}, {Value: 10}})
	require.NoError(t, err)

	source := &fakeSource{instant: map[string]float64{dbQueryLatencyQuery: 600}}
	results, err := detector.Detect(ctx, source, cfg.Thresholds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Baseline)
	assert.InDelta(t, 11.2, results[0].Baseline.Mean, 0.0001)
	assert.Greater(t, results[0].Baseline.ZScore, 2.5)
}

func TestRegistryCoversAllComponents(t *testing.T) {
	cfg, baselines := newTestDetectorEnv()
	registry := Registry(cfg, baselines)

	for _, component := range []string{model.ComponentDatabase, model.ComponentMemory, model.ComponentCPU, model.ComponentNetwork} {
		detector, ok := registry[component]
		require.True(t, ok, component)
		assert.Equal(t, component, detector.Component())
	}
}
