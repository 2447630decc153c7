package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/database"
	"github.com/perflens/bottleneck-analyzer/pkg/metricsource"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
	"github.com/perflens/bottleneck-analyzer/pkg/module/detectors"
)

type fakeSource struct {
	instant map[string]float64
	ranges  map[string][]model.Sample
	errs    map[string]error
}

func (f *fakeSource) QueryInstant(ctx context.Context, query string) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if err, ok := f.errs[query]; ok {
		return 0, false, err
	}
	value, ok := f.instant[query]
	return value, ok, nil
}

func (f *fakeSource) QueryRange(ctx context.Context, query string, start, end time.Time, stepSeconds int) ([]model.MetricsSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	samples, ok := f.ranges[query]
	if !ok {
		return nil, nil
	}
	return []model.MetricsSeries{{Samples: samples}}, nil
}

// query lookups shared with the detector definitions
var (
	testQueries = func() map[string]string {
		cfg := &config.Config{}
		registry := detectors.Registry(cfg, baseline.NewManager(5))
		return map[string]string{
			"db_latency":   registry[model.ComponentDatabase].BaselineMetrics()["query_latency_p95_ms"],
			"cpu_used":     registry[model.ComponentCPU].BaselineMetrics()["used_percent"],
			"memory_used":  registry[model.ComponentMemory].BaselineMetrics()["used_percent"],
			"memory_heap":  registry[model.ComponentMemory].BaselineMetrics()["heap_bytes"],
			"db_pool":      registry[model.ComponentDatabase].BaselineMetrics()["pool_utilization"],
			"db_lock_wait": registry[model.ComponentDatabase].BaselineMetrics()["lock_wait_ms"],
		}
	}()
)

func testAnalyzerConfig() *config.Config {
	return &config.Config{
		Thresholds: config.ThresholdConfig{
			Database: config.DatabaseThresholds{
				QueryLatencyP95Ms: config.ThresholdPair{Warning: 100, Critical: 500},
			},
		},
	}
}

func newTestAnalyzer(source metricsource.Source) (*Analyzer, *database.MockFacade) {
	mock := database.NewMockFacade()
	database.SetFacade(mock)
	cfg := testAnalyzerConfig()
	return New(cfg, source, baseline.NewManager(cfg.Analysis.GetMinSamples()), nil), mock
}

func pressuredSource() *fakeSource {
	return &fakeSource{instant: map[string]float64{
		testQueries["db_latency"]:  600,  // critical
		testQueries["cpu_used"]:    85,   // warning
		testQueries["memory_used"]: 96.5, // critical
	}}
}

func TestRunAnalysisDeterministicOrdering(t *testing.T) {
	analyzer, _ := newTestAnalyzer(pressuredSource())

	report, err := analyzer.RunAnalysis(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Bottlenecks, 3)

	// component ascending, critical before warning within a component
	assert.Equal(t, model.BottleneckCPUHigh, report.Bottlenecks[0].Type)
	assert.Equal(t, model.BottleneckDBQuerySlow, report.Bottlenecks[1].Type)
	assert.Equal(t, model.BottleneckMemoryCritical, report.Bottlenecks[2].Type)
	assert.NotEmpty(t, report.RunID)
	assert.Empty(t, report.Gaps)
}

func TestRunAnalysisHealthScore(t *testing.T) {
	analyzer, _ := newTestAnalyzer(pressuredSource())

	report, err := analyzer.RunAnalysis(context.Background())
	require.NoError(t, err)
	// two criticals and one warning against default penalties
	assert.InDelta(t, 40, report.HealthScore, 0.0001)
}

func TestRunAnalysisCorrelations(t *testing.T) {
	analyzer, _ := newTestAnalyzer(pressuredSource())

	report, err := analyzer.RunAnalysis(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Correlations, 1)
	assert.Equal(t, []string{model.ComponentCPU, model.ComponentMemory}, report.Correlations[0].Components)
}

func TestRunAnalysisDetectorGap(t *testing.T) {
	source := pressuredSource()
	source.errs = map[string]error{testQueries["cpu_used"]: metricsource.ErrUnavailable}
	analyzer, _ := newTestAnalyzer(source)

	report, err := analyzer.RunAnalysis(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Gaps, 1)
	assert.Equal(t, model.ComponentCPU, report.Gaps[0].Component)
	// health only reflects components that reported
	require.Len(t, report.Bottlenecks, 2)
	assert.InDelta(t, 50, report.HealthScore, 0.0001)
}

func TestRunAnalysisAllSourcesDownStillReports(t *testing.T) {
	source := &fakeSource{errs: map[string]error{}}
	for _, query := range testQueries {
		source.errs[query] = metricsource.ErrUnavailable
	}
	analyzer, _ := newTestAnalyzer(source)

	report, err := analyzer.RunAnalysis(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Bottlenecks)
	assert.Len(t, report.Gaps, 3) // network has no dependencies configured
	assert.Equal(t, float64(100), report.HealthScore)
}

func TestRunAnalysisCancellation(t *testing.T) {
	analyzer, mock := newTestAnalyzer(pressuredSource())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := analyzer.RunAnalysis(ctx)
	assert.Error(t, err)
	assert.Nil(t, report)
	assert.Empty(t, mock.ReportMock.Reports)
}

func TestRunAnalysisPersistsReport(t *testing.T) {
	analyzer, mock := newTestAnalyzer(pressuredSource())

	report, err := analyzer.RunAnalysis(context.Background())
	require.NoError(t, err)

	require.Len(t, mock.ReportMock.Reports, 1)
	row := mock.ReportMock.Reports[0]
	assert.Equal(t, report.RunID, row.RunID)
	assert.Equal(t, 3, row.BottleneckCount)
	assert.Equal(t, 2, row.CriticalCount)
	assert.Equal(t, 1, row.WarningCount)
	assert.Equal(t, report.HealthScore, row.HealthScore)
}

func TestRunDetector(t *testing.T) {
	analyzer, _ := newTestAnalyzer(pressuredSource())

	results, err := analyzer.RunDetector(context.Background(), model.ComponentDatabase)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.BottleneckDBQuerySlow, results[0].Type)

	_, err = analyzer.RunDetector(context.Background(), "disk")
	assert.Error(t, err)
}

func TestHealthScoreClampsAtZero(t *testing.T) {
	analyzer, _ := newTestAnalyzer(&fakeSource{})

	results := make([]model.BottleneckResult, 6)
	for i := range results {
		results[i] = model.BottleneckResult{Component: model.ComponentDatabase, Severity: model.SeverityCritical}
	}
	assert.Equal(t, float64(0), analyzer.HealthScore(results))
}

func TestUpdateComponentBaselines(t *testing.T) {
	window := make([]model.Sample, 10)
	for i := range window {
		window[i] = model.Sample{Timestamp: int64(i * 30), Value: 40 + float64(i%3)}
	}
	source := &fakeSource{ranges: map[string][]model.Sample{
		testQueries["cpu_used"]: window,
	}}
	analyzer, _ := newTestAnalyzer(source)
	ctx := context.Background()

	updated, err := analyzer.UpdateComponentBaselines(ctx, model.ComponentCPU)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, model.ComponentCPU, updated[0].Component)
	assert.Equal(t, "used_percent", updated[0].Metric)
	assert.Equal(t, 10, updated[0].SampleCount)

	comparison, err := analyzer.CompareToBaseline(ctx, model.ComponentCPU, "used_percent", 90)
	require.NoError(t, err)
	assert.Greater(t, comparison.ZScore, 2.5)
}

func TestUpdateComponentBaselinesSkipsShortWindows(t *testing.T) {
	source := &fakeSource{ranges: map[string][]model.Sample{
		testQueries["cpu_used"]: {{Timestamp: 0, Value: 40}, {Timestamp: 30, Value: 41}},
	}}
	analyzer, _ := newTestAnalyzer(source)

	updated, err := analyzer.UpdateComponentBaselines(context.Background(), model.ComponentCPU)
	require.NoError(t, err)
	assert.Empty(t, updated)
}

func TestUpdateComponentBaselinesUnknownComponent(t *testing.T) {
	analyzer, _ := newTestAnalyzer(&fakeSource{})

	_, err := analyzer.UpdateComponentBaselines(context.Background(), "disk")
	assert.Error(t, err)
}
