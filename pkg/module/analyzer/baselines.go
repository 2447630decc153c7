package analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/errors"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
	"github.com/perflens/bottleneck-analyzer/pkg/module/stats"
)

// UpdateComponentBaselines recomputes every baseline metric of one
// component from a fresh sample window and persists the results. Metrics
// without enough samples are skipped, not failed.
func (a *Analyzer) UpdateComponentBaselines(ctx context.Context, component string) ([]*model.Baseline, error) {
	detector, ok := a.detectors[component]
	if !ok {
		return nil, errors.NewError().WithCode(errors.RequestDataNotExisted).
			WithMessage(fmt.Sprintf("no detector for component %q", component))
	}

	queries := detector.BaselineMetrics()
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)

	end := time.Now()
	start := end.Add(-a.cfg.Analysis.GetBaselineWindow())
	step := a.cfg.Analysis.GetBaselineStep()

	var updated []*model.Baseline
	for _, metric := range names {
		fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.MetricsSource.GetQueryTimeout())
		series, err := a.source.QueryRange(fetchCtx, queries[metric], start, end, step)
		cancel()
		if err != nil {
			return nil, errors.NewError().WithCode(errors.CodeMetricsSourceError).
				WithMessage(fmt.Sprintf("baseline window fetch failed for %s/%s", component, metric)).WithError(err)
		}
		if len(series) == 0 {
			log.WithContext(ctx).Debugf("No samples for %s/%s, baseline unchanged", component, metric)
			continue
		}

		computed, err := a.baselines.ComputeAndStore(ctx, component, metric, series[0].Samples)
		if err != nil {
			if err == baseline.ErrInsufficientSamples {
				log.WithContext(ctx).Warnf("Skipping baseline for %s/%s: only %d sample(s)",
					component, metric, len(series[0].Samples))
				continue
			}
			return nil, err
		}
		updated = append(updated, computed)
	}
	return updated, nil
}

// UpdateAllBaselines refreshes every component in turn; per-component
// failures are logged and do not stop the remaining components
func (a *Analyzer) UpdateAllBaselines(ctx context.Context) {
	components := make([]string, 0, len(a.detectors))
	for component := range a.detectors {
		components = append(components, component)
	}
	sort.Strings(components)

	for _, component := range components {
		updated, err := a.UpdateComponentBaselines(ctx, component)
		if err != nil {
			log.WithContext(ctx).Errorf("Baseline refresh failed for %s: %v", component, err)
			continue
		}
		log.WithContext(ctx).Infof("Refreshed %d baseline(s) for %s", len(updated), component)
	}
}

// CompareToBaseline is the diagnostic pass-through for callers probing a
// value against a stored baseline
func (a *Analyzer) CompareToBaseline(ctx context.Context, component, metric string, value float64) (*model.Comparison, error) {
	return a.baselines.CompareToBaseline(ctx, component, metric, value)
}

// CheckAnomaly scores a value against the metric's fresh sample window
// using the configured strategy (z-score or MAD)
func (a *Analyzer) CheckAnomaly(ctx context.Context, component, metric string, value float64) (*stats.AnomalyScore, error) {
	series, _, err := a.TrendWindow(ctx, component, metric)
	if err != nil {
		return nil, err
	}
	if len(series.Samples) < a.cfg.Analysis.GetMinSamples() {
		return nil, errors.NewError().WithCode(errors.InvalidDataError).
			WithMessage(fmt.Sprintf("not enough samples for %s/%s to score an anomaly", component, metric))
	}
	score := stats.DetectAnomaly(a.cfg.Analysis.GetAnomalyStrategy(), series.Values(),
		value, a.cfg.Analysis.GetAnomalyThreshold())
	return &score, nil
}

// TrendWindow fetches the recent series of one baseline metric together
// with its stored baseline, for trend charts. The baseline may be nil
// when none is stored yet.
func (a *Analyzer) TrendWindow(ctx context.Context, component, metric string) (model.MetricsSeries, *model.Baseline, error) {
	detector, ok := a.detectors[component]
	if !ok {
		return model.MetricsSeries{}, nil, errors.NewError().WithCode(errors.RequestDataNotExisted).
			WithMessage(fmt.Sprintf("no detector for component %q", component))
	}
	query, ok := detector.BaselineMetrics()[metric]
	if !ok {
		return model.MetricsSeries{}, nil, errors.NewError().WithCode(errors.RequestDataNotExisted).
			WithMessage(fmt.Sprintf("component %q has no baseline metric %q", component, metric))
	}

	end := time.Now()
	start := end.Add(-a.cfg.Analysis.GetBaselineWindow())
	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.MetricsSource.GetQueryTimeout())
	defer cancel()
	series, err := a.source.QueryRange(fetchCtx, query, start, end, a.cfg.Analysis.GetBaselineStep())
	if err != nil {
		return model.MetricsSeries{}, nil, errors.NewError().WithCode(errors.CodeMetricsSourceError).
			WithMessage(fmt.Sprintf("trend window fetch failed for %s/%s", component, metric)).WithError(err)
	}

	stored, err := a.baselines.GetBaseline(ctx, component, metric)
	if err != nil {
		if err != baseline.ErrNoBaseline {
			return model.MetricsSeries{}, nil, err
		}
		stored = nil
	}
	if len(series) == 0 {
		return model.MetricsSeries{}, stored, nil
	}
	return series[0], stored, nil
}
