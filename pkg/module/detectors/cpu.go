package detectors

import (
	"context"
	"fmt"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/metricsource"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
)

const (
	cpuUsedPercentMetric = "used_percent"
	cpuUsedPercentQuery  = `100 - (avg(rate(node_cpu_seconds_total{mode="idle"}[1m])) * 100)`
)

// CPUDetector watches instantaneous and sustained CPU load. The sustained
// check requires a run of consecutive high polls so a single spike does
// not trigger it.
type CPUDetector struct {
	cfg       *config.Config
	baselines *baseline.Manager
}

func NewCPUDetector(cfg *config.Config, baselines *baseline.Manager) *CPUDetector {
	return &CPUDetector{cfg: cfg, baselines: baselines}
}

func (d *CPUDetector) Name() string {
	return "cpu-detector"
}

func (d *CPUDetector) Component() string {
	return model.ComponentCPU
}

func (d *CPUDetector) BaselineMetrics() map[string]string {
	return map[string]string{
		cpuUsedPercentMetric: cpuUsedPercentQuery,
	}
}

func (d *CPUDetector) Detect(ctx context.Context, source metricsource.Source, thresholds config.ThresholdConfig) ([]model.BottleneckResult, error) {
	var results []model.BottleneckResult
	pair := thresholds.CPU.GetUsedPercent()

	used, found, err := fetchInstant(ctx, source, d.Component(), cpuUsedPercentQuery)
	if err != nil {
		return nil, err
	}
	if found {
		if severity, breached := classify(used, pair); breached {
			result := newResult(model.BottleneckCPUHigh, d.Component(), cpuUsedPercentMetric, severity, used,
				fmt.Sprintf("CPU %.1f%% used", used))
			attachBaseline(ctx, d.baselines, &result)
			results = append(results, result)
		}
	}

	sustained, ok, err := d.detectSustained(ctx, source, thresholds.CPU)
	if err != nil {
		return nil, err
	}
	if ok {
		results = append(results, sustained)
	}

	return results, nil
}

// detectSustained fetches the recent poll window and fires only when the
// trailing N polls are all at or above the warning threshold
func (d *CPUDetector) detectSustained(ctx context.Context, source metricsource.Source, cpu config.CPUThresholds) (model.BottleneckResult, bool, error) {
	pair := cpu.GetUsedPercent()
	polls := cpu.GetSustainedPolls()
	step := d.cfg.Analysis.GetBaselineStep()
	end := time.Now()
	start := end.Add(-time.Duration((polls+1)*step) * time.Second)

	series, err := source.QueryRange(ctx, cpuUsedPercentQuery, start, end, step)
	if err != nil {
		return model.BottleneckResult{}, false, fmt.Errorf("%s metrics fetch: %w", d.Component(), err)
	}
	if len(series) == 0 || len(series[0].Samples) < polls {
		return model.BottleneckResult{}, false, nil
	}

	samples := series[0].Samples
	window := samples[len(samples)-polls:]
	lowest := window[0].Value
	for _, s := range window {
		if s.Value < pair.Warning {
			return model.BottleneckResult{}, false, nil
		}
		if s.Value < lowest {
			lowest = s.Value
		}
	}

	severity, _ := classify(lowest, pair)
	result := newResult(model.BottleneckCPUSustained, d.Component(), cpuUsedPercentMetric, severity, lowest,
		fmt.Sprintf("CPU at or above %.0f%% for %d consecutive polls", pair.Warning, polls))
	attachBaseline(ctx, d.baselines, &result)
	return result, true, nil
}
