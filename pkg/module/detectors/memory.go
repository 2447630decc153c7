package detectors

import (
	"context"
	"fmt"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/metricsource"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
	"github.com/perflens/bottleneck-analyzer/pkg/module/stats"
)

const (
	memUsedPercentMetric = "used_percent"
	memHeapBytesMetric   = "heap_bytes"
	memCacheSizeMetric   = "cache_entries"
	memCacheHitMetric    = "cache_hit_rate"

	memUsedPercentQuery = `(1 - node_memory_MemAvailable_bytes / node_memory_MemTotal_bytes) * 100`
	memHeapBytesQuery   = `go_memstats_heap_inuse_bytes`
	memCacheSizeQuery   = `app_cache_entries`
	memCacheHitQuery    = `rate(app_cache_hits_total[5m]) / rate(app_cache_requests_total[5m])`
)

// MemoryDetector watches overall usage, heap growth trends and cache health
type MemoryDetector struct {
	cfg       *config.Config
	baselines *baseline.Manager
}

func NewMemoryDetector(cfg *config.Config, baselines *baseline.Manager) *MemoryDetector {
	return &MemoryDetector{cfg: cfg, baselines: baselines}
}

func (d *MemoryDetector) Name() string {
	return "memory-detector"
}

func (d *MemoryDetector) Component() string {
	return model.ComponentMemory
}

func (d *MemoryDetector) BaselineMetrics() map[string]string {
	return map[string]string{
		memUsedPercentMetric: memUsedPercentQuery,
		memHeapBytesMetric:   memHeapBytesQuery,
	}
}

func (d *MemoryDetector) Detect(ctx context.Context, source metricsource.Source, thresholds config.ThresholdConfig) ([]model.BottleneckResult, error) {
	var results []model.BottleneckResult

	usedPercent, found, err := fetchInstant(ctx, source, d.Component(), memUsedPercentQuery)
	if err != nil {
		return nil, err
	}
	if found {
		if severity, breached := classify(usedPercent, thresholds.Memory.GetUsedPercent()); breached {
			result := newResult(model.BottleneckMemoryCritical, d.Component(), memUsedPercentMetric, severity, usedPercent,
				fmt.Sprintf("memory %.1f%% used", usedPercent))
			attachBaseline(ctx, d.baselines, &result)
			results = append(results, result)
		}
	}

	if leak, ok, err := d.detectLeak(ctx, source); err != nil {
		return nil, err
	} else if ok {
		results = append(results, leak)
	}

	if growth, ok, err := d.detectCacheGrowth(ctx, source, thresholds); err != nil {
		return nil, err
	} else if ok {
		results = append(results, growth)
	}

	return results, nil
}

// detectLeak fits a regression over the heap series for the baseline
// window and flags a confident slope above the configured rate
func (d *MemoryDetector) detectLeak(ctx context.Context, source metricsource.Source) (model.BottleneckResult, bool, error) {
	analysis := d.cfg.Analysis
	end := time.Now()
	start := end.Add(-analysis.GetBaselineWindow())

	series, err := source.QueryRange(ctx, memHeapBytesQuery, start, end, analysis.GetBaselineStep())
	if err != nil {
		return model.BottleneckResult{}, false, fmt.Errorf("%s metrics fetch: %w", d.Component(), err)
	}
	if len(series) == 0 {
		return model.BottleneckResult{}, false, nil
	}

	trend := stats.AnalyzeTrend(series[0].Samples, analysis.GetTrendMinSamples(), analysis.GetTrendMinRSquared())
	slopePerMin := trend.SlopePerMinute()
	if !trend.Confident || slopePerMin < d.cfg.Thresholds.Memory.GetLeakSlopePerMin() {
		return model.BottleneckResult{}, false, nil
	}

	last := series[0].Samples[len(series[0].Samples)-1].Value
	result := newResult(model.BottleneckMemoryLeak, d.Component(), memHeapBytesMetric, model.SeverityWarning, last,
		fmt.Sprintf("heap growing %.0f bytes/min over %d samples (r²=%.2f)", slopePerMin, trend.SampleCount, trend.RSquared))
	attachBaseline(ctx, d.baselines, &result)
	return result, true, nil
}

// detectCacheGrowth flags a cache that keeps growing while its hit rate
// stays under the floor, i.e. growth that is not paying off
func (d *MemoryDetector) detectCacheGrowth(ctx context.Context, source metricsource.Source, thresholds config.ThresholdConfig) (model.BottleneckResult, bool, error) {
	hitRate, found, err := fetchInstant(ctx, source, d.Component(), memCacheHitQuery)
	if err != nil {
		return model.BottleneckResult{}, false, err
	}
	floor := thresholds.Memory.GetCacheHitRateFloor()
	if !found || hitRate >= floor {
		return model.BottleneckResult{}, false, nil
	}

	analysis := d.cfg.Analysis
	end := time.Now()
	start := end.Add(-analysis.GetBaselineWindow())
	series, err := source.QueryRange(ctx, memCacheSizeQuery, start, end, analysis.GetBaselineStep())
	if err != nil {
		return model.BottleneckResult{}, false, fmt.Errorf("%s metrics fetch: %w", d.Component(), err)
	}
	if len(series) == 0 {
		return model.BottleneckResult{}, false, nil
	}

	trend := stats.AnalyzeTrend(series[0].Samples, analysis.GetTrendMinSamples(), analysis.GetTrendMinRSquared())
	if !trend.Confident || trend.Slope <= 0 {
		return model.BottleneckResult{}, false, nil
	}

	last := series[0].Samples[len(series[0].Samples)-1].Value
	return newResult(model.BottleneckCacheGrowth, d.Component(), memCacheSizeMetric, model.SeverityWarning, last,
		fmt.Sprintf("cache grew to %.0f entries while hit rate %.2f stays under %.2f", last, hitRate, floor)), true, nil
}
