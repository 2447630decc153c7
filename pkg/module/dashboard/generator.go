package dashboard

import (
	"sort"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/model"
)

// GenerateDashboardData projects one report plus historical baselines
// into the consumer-agnostic dashboard structure. Pure: it only reads
// already-published data and is safe to call concurrently with passes.
func GenerateDashboardData(report *model.Report, baselines []model.Baseline) *model.DashboardData {
	data := &model.DashboardData{
		RunID:          report.RunID,
		GeneratedAt:    time.Now(),
		HealthScore:    report.HealthScore,
		SeverityCounts: report.CountBySeverity(),
		Gaps:           report.Gaps,
		Baselines:      baselines,
	}

	byComponent := map[string][]model.BottleneckResult{}
	for _, result := range report.Bottlenecks {
		byComponent[result.Component] = append(byComponent[result.Component], result)
	}
	gapped := map[string]bool{}
	for _, gap := range report.Gaps {
		gapped[gap.Component] = true
	}

	for _, component := range []string{model.ComponentCPU, model.ComponentDatabase, model.ComponentMemory, model.ComponentNetwork} {
		data.Components = append(data.Components, model.ComponentStatus{
			Component:   component,
			Status:      componentStatus(byComponent[component], gapped[component]),
			Bottlenecks: byComponent[component],
		})
	}
	return data
}

func componentStatus(results []model.BottleneckResult, gapped bool) string {
	if gapped {
		return model.ComponentStatusUnknown
	}
	status := model.ComponentStatusOK
	for _, result := range results {
		if result.Severity == model.SeverityCritical {
			return model.ComponentStatusCritical
		}
		status = model.ComponentStatusWarning
	}
	return status
}

// GenerateTrendChartData lays the live series next to its baseline bands
// (mean and p95) so a chart can show deviation at a glance
func GenerateTrendChartData(name string, current model.MetricsSeries, baseline *model.Baseline) *model.ChartData {
	samples := append([]model.Sample{}, current.Samples...)
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Timestamp < samples[j].Timestamp })

	chart := &model.ChartData{
		Series: []model.ChartSeries{{Name: name, Samples: samples}},
	}
	if baseline == nil || len(samples) == 0 {
		return chart
	}

	chart.Series = append(chart.Series,
		model.ChartSeries{Name: name + "_baseline_mean", Samples: bandSamples(samples, baseline.Mean)},
		model.ChartSeries{Name: name + "_baseline_p95", Samples: bandSamples(samples, baseline.P95)},
	)
	return chart
}

func bandSamples(samples []model.Sample, value float64) []model.Sample {
	band := make([]model.Sample, len(samples))
	for i, s := range samples {
		band[i] = model.Sample{Timestamp: s.Timestamp, Value: value}
	}
	return band
}
