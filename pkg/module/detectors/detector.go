package detectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/metricsource"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
)

// Detector classifies one component's current metrics against thresholds
// and baselines. Implementations are side-effect-free besides returning
// results; a fetch failure surfaces as an error the orchestrator turns
// into a pass-level gap.
type Detector interface {
	Name() string
	Component() string
	// BaselineMetrics maps metric name to the range query used to
	// rebuild that metric's baseline window
	BaselineMetrics() map[string]string
	Detect(ctx context.Context, source metricsource.Source, thresholds config.ThresholdConfig) ([]model.BottleneckResult, error)
}

// Registry maps component name to its detector
func Registry(cfg *config.Config, baselines *baseline.Manager) map[string]Detector {
	return map[string]Detector{
		model.ComponentDatabase: NewDatabaseDetector(cfg, baselines),
		model.ComponentMemory:   NewMemoryDetector(cfg, baselines),
		model.ComponentCPU:      NewCPUDetector(cfg, baselines),
		model.ComponentNetwork:  NewNetworkDetector(cfg, baselines),
	}
}

var runbookRefs = map[string]string{
	model.BottleneckDBQuerySlow:      "runbooks/database.md#slow-queries",
	model.BottleneckDBPoolSaturated:  "runbooks/database.md#pool-saturation",
	model.BottleneckDBLockContention: "runbooks/database.md#lock-contention",
	model.BottleneckDBDeadlock:       "runbooks/database.md#deadlocks",
	model.BottleneckMemoryCritical:   "runbooks/memory.md#critical-usage",
	model.BottleneckMemoryLeak:       "runbooks/memory.md#leak-triage",
	model.BottleneckCacheGrowth:      "runbooks/memory.md#cache-growth",
	model.BottleneckCPUHigh:          "runbooks/cpu.md#high-usage",
	model.BottleneckCPUSustained:     "runbooks/cpu.md#sustained-load",
}

// classify maps a value onto a threshold pair. Critical implies the
// warning condition also holds, so severity stays monotonic.
func classify(value float64, pair config.ThresholdPair) (string, bool) {
	if pair.Critical > 0 && value >= pair.Critical {
		return model.SeverityCritical, true
	}
	if pair.Warning > 0 && value >= pair.Warning {
		return model.SeverityWarning, true
	}
	return "", false
}

func newResult(bottleneckType, component, metric, severity string, value float64, description string) model.BottleneckResult {
	return model.BottleneckResult{
		ID:            uuid.NewString(),
		Type:          bottleneckType,
		Component:     component,
		Metric:        metric,
		Severity:      severity,
		ObservedValue: value,
		DetectedAt:    time.Now(),
		Description:   description,
		RunbookRef:    runbookRefs[bottleneckType],
	}
}

// attachBaseline enriches a result with the stored baseline context.
// A missing baseline is treated as unknown, not as a failure.
func attachBaseline(ctx context.Context, baselines *baseline.Manager, result *model.BottleneckResult) {
	stored, err := baselines.GetBaseline(ctx, result.Component, result.Metric)
	if err != nil {
		if !errors.Is(err, baseline.ErrNoBaseline) {
			log.WithContext(ctx).Warnf("Baseline lookup failed for %s/%s: %v", result.Component, result.Metric, err)
		}
		return
	}
	comparison := baseline.Compare(stored, result.ObservedValue)
	result.Baseline = &model.BaselineRef{
		Mean:        stored.Mean,
		StdDev:      stored.StdDev,
		P95:         stored.P95,
		ZScore:      comparison.ZScore,
		SampleCount: stored.SampleCount,
	}
}

// fetchInstant wraps a point query; found=false means the backend has no
// data for the metric, which callers skip rather than report
func fetchInstant(ctx context.Context, source metricsource.Source, component, query string) (float64, bool, error) {
	value, found, err := source.QueryInstant(ctx, query)
	if err != nil {
		return 0, false, fmt.Errorf("%s metrics fetch: %w", component, err)
	}
	return value, found, nil
}
