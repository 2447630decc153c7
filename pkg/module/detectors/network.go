package detectors

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/metricsource"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
)

const netLatencyQueryTemplate = `histogram_quantile(0.95, sum(rate(dependency_request_duration_seconds_bucket{dependency="%s"}[5m])) by (le)) * 1000`

// NetworkDetector watches p95 latency towards each configured remote
// dependency; thresholds are per dependency
type NetworkDetector struct {
	cfg       *config.Config
	baselines *baseline.Manager
}

func NewNetworkDetector(cfg *config.Config, baselines *baseline.Manager) *NetworkDetector {
	return &NetworkDetector{cfg: cfg, baselines: baselines}
}

func (d *NetworkDetector) Name() string {
	return "network-detector"
}

func (d *NetworkDetector) Component() string {
	return model.ComponentNetwork
}

func (d *NetworkDetector) BaselineMetrics() map[string]string {
	metrics := map[string]string{}
	for _, dep := range d.dependencies() {
		metrics[latencyMetricName(dep)] = fmt.Sprintf(netLatencyQueryTemplate, dep)
	}
	return metrics
}

// dependencies returns the configured remote names in stable order
func (d *NetworkDetector) dependencies() []string {
	deps := make([]string, 0, len(d.cfg.Thresholds.Network.Dependencies))
	for name := range d.cfg.Thresholds.Network.Dependencies {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps
}

func (d *NetworkDetector) Detect(ctx context.Context, source metricsource.Source, thresholds config.ThresholdConfig) ([]model.BottleneckResult, error) {
	var results []model.BottleneckResult

	for _, dep := range d.dependencies() {
		pair := thresholds.Network.Dependencies[dep]
		query := fmt.Sprintf(netLatencyQueryTemplate, dep)

		latency, found, err := fetchInstant(ctx, source, d.Component(), query)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		severity, breached := classify(latency, pair)
		if !breached {
			continue
		}
		result := newResult(latencyBottleneckType(dep), d.Component(), latencyMetricName(dep), severity, latency,
			fmt.Sprintf("%s p95 latency %.1fms exceeds %s threshold", dep, latency, severity))
		attachBaseline(ctx, d.baselines, &result)
		results = append(results, result)
	}

	return results, nil
}

func latencyMetricName(dependency string) string {
	return dependency + "_latency_ms"
}

// latencyBottleneckType derives the per-dependency type, e.g.
// "payment-api" becomes PAYMENT_API_LATENCY_HIGH
func latencyBottleneckType(dependency string) string {
	normalized := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(dependency))
	return normalized + "_LATENCY_HIGH"
}
