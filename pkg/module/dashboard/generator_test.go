package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perflens/bottleneck-analyzer/pkg/model"
)

func stubReport() *model.Report {
	return &model.Report{
		RunID:       "run-42",
		HealthScore: 65,
		Bottlenecks: []model.BottleneckResult{
			{Type: model.BottleneckCPUHigh, Component: model.ComponentCPU, Severity: model.SeverityWarning},
			{Type: model.BottleneckDBQuerySlow, Component: model.ComponentDatabase, Severity: model.SeverityCritical},
			{Type: model.BottleneckDBPoolSaturated, Component: model.ComponentDatabase, Severity: model.SeverityWarning},
		},
		Gaps: []model.DetectorGap{
			{Detector: "network-detector", Component: model.ComponentNetwork, Reason: "metrics source unavailable"},
		},
	}
}

func TestGenerateDashboardData(t *testing.T) {
	data := GenerateDashboardData(stubReport(), nil)

	assert.Equal(t, "run-42", data.RunID)
	assert.Equal(t, float64(65), data.HealthScore)
	assert.Equal(t, map[string]int{model.SeverityWarning: 2, model.SeverityCritical: 1}, data.SeverityCounts)

	statuses := map[string]string{}
	for _, c := range data.Components {
		statuses[c.Component] = c.Status
	}
	assert.Equal(t, model.ComponentStatusWarning, statuses[model.ComponentCPU])
	assert.Equal(t, model.ComponentStatusCritical, statuses[model.ComponentDatabase])
	assert.Equal(t, model.ComponentStatusOK, statuses[model.ComponentMemory])
	assert.Equal(t, model.ComponentStatusUnknown, statuses[model.ComponentNetwork])
}

func TestGenerateDashboardDataIsPure(t *testing.T) {
	report := stubReport()
	first := GenerateDashboardData(report, nil)
	second := GenerateDashboardData(report, nil)

	assert.Equal(t, first.SeverityCounts, second.SeverityCounts)
	assert.Equal(t, first.Components, second.Components)
	// the source report is untouched
	assert.Len(t, report.Bottlenecks, 3)
}

func TestGenerateTrendChartData(t *testing.T) {
	series := model.MetricsSeries{Samples: []model.Sample{
		{Timestamp: 60, Value: 48},
		{Timestamp: 0, Value: 42},
		{Timestamp: 30, Value: 45},
	}}
	baseline := &model.Baseline{Mean: 40, P95: 50}

	chart := GenerateTrendChartData("cpu_used_percent", series, baseline)

	require.Len(t, chart.Series, 3)
	assert.Equal(t, "cpu_used_percent", chart.Series[0].Name)
	// samples are ordered oldest to newest
	assert.Equal(t, int64(0), chart.Series[0].Samples[0].Timestamp)
	assert.Equal(t, int64(60), chart.Series[0].Samples[2].Timestamp)

	assert.Equal(t, "cpu_used_percent_baseline_mean", chart.Series[1].Name)
	for _, s := range chart.Series[1].Samples {
		assert.Equal(t, float64(40), s.Value)
	}
	assert.Equal(t, "cpu_used_percent_baseline_p95", chart.Series[2].Name)
}

func TestGenerateTrendChartDataWithoutBaseline(t *testing.T) {
	chart := GenerateTrendChartData("heap_bytes", model.MetricsSeries{
		Samples: []model.Sample{{Timestamp: 0, Value: 1}},
	}, nil)
	require.Len(t, chart.Series, 1)
}
