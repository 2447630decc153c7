package analyzer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/database"
	dbmodel "github.com/perflens/bottleneck-analyzer/pkg/database/model"
	"github.com/perflens/bottleneck-analyzer/pkg/errors"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/metrics"
	"github.com/perflens/bottleneck-analyzer/pkg/metricsource"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/module/alerts"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
	"github.com/perflens/bottleneck-analyzer/pkg/module/detectors"
	"github.com/perflens/bottleneck-analyzer/pkg/module/stats"
)

var (
	analysisRunCounter = metrics.NewCounterVec("analysis_runs_total",
		"Analysis passes partitioned by status", []string{"status"})
	healthScoreGauge = metrics.NewGaugeVec("health_score",
		"Health score of the most recent analysis pass", nil)
	bottleneckGauge = metrics.NewGaugeVec("bottlenecks_found",
		"Bottlenecks found in the most recent pass", []string{"component", "severity"})
	detectorDurationGauge = metrics.NewGaugeVec("detector_duration_seconds",
		"Wall time of each detector in the most recent pass", []string{"detector"})
)

// Analyzer orchestrates one analysis pass: it fans out to every detector
// in parallel, joins the results into an immutable Report, and hands the
// report to the alert router
type Analyzer struct {
	cfg       *config.Config
	source    metricsource.Source
	baselines *baseline.Manager
	router    *alerts.Router
	detectors map[string]detectors.Detector
}

func New(cfg *config.Config, source metricsource.Source, baselines *baseline.Manager, router *alerts.Router) *Analyzer {
	registry := detectors.Registry(cfg, baselines)
	if len(cfg.Analysis.Detectors) > 0 {
		enabled := map[string]detectors.Detector{}
		for _, component := range cfg.Analysis.Detectors {
			if detector, ok := registry[component]; ok {
				enabled[component] = detector
			} else {
				log.Warnf("Unknown detector %q in configuration, skipping", component)
			}
		}
		registry = enabled
	}
	return &Analyzer{
		cfg:       cfg,
		source:    source,
		baselines: baselines,
		router:    router,
		detectors: registry,
	}
}

// RunAnalysis executes one full pass. Detector failures become gaps, a
// completely unreachable metrics source still yields a best-effort
// Report; only caller cancellation aborts the pass without a report.
func (a *Analyzer) RunAnalysis(ctx context.Context) (*model.Report, error) {
	runID := uuid.NewString()
	startedAt := time.Now()
	// snapshot so thresholds cannot change mid-pass
	thresholds := a.cfg.Thresholds
	timeout := a.cfg.MetricsSource.GetQueryTimeout()

	var (
		mu      sync.Mutex
		results []model.BottleneckResult
		gaps    []model.DetectorGap
	)
	g, gctx := errgroup.WithContext(ctx)
	for name := range a.detectors {
		detector := a.detectors[name]
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			detectStart := time.Now()
			found, err := detector.Detect(fetchCtx, a.source, thresholds)
			detectorDurationGauge.Set(time.Since(detectStart).Seconds(), detector.Name())
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.WithContext(ctx).Warnf("Detector %s unavailable this pass: %v", detector.Name(), err)
				mu.Lock()
				gaps = append(gaps, model.DetectorGap{
					Detector:  detector.Name(),
					Component: detector.Component(),
					Reason:    err.Error(),
				})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			results = append(results, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		analysisRunCounter.Inc("cancelled")
		return nil, err
	}

	sortResults(results)
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].Component < gaps[j].Component })

	report := &model.Report{
		RunID:        runID,
		StartedAt:    startedAt,
		FinishedAt:   time.Now(),
		Bottlenecks:  results,
		Gaps:         gaps,
		Correlations: stats.FindCoOccurring(results),
		HealthScore:  a.HealthScore(results),
	}

	a.publishMetrics(report)
	a.persistReport(ctx, report)
	analysisRunCounter.Inc("completed")
	log.WithContext(ctx).Infof("Analysis %s finished: %d bottleneck(s), %d gap(s), health %.1f",
		runID, len(results), len(gaps), report.HealthScore)

	if a.router != nil && len(report.Bottlenecks) > 0 {
		a.router.SendAlerts(ctx, report)
	}
	return report, nil
}

// RunDetector runs a single named detector outside a full pass
func (a *Analyzer) RunDetector(ctx context.Context, component string) ([]model.BottleneckResult, error) {
	detector, ok := a.detectors[component]
	if !ok {
		return nil, errors.NewError().WithCode(errors.RequestDataNotExisted).
			WithMessage(fmt.Sprintf("no detector for component %q", component))
	}
	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.MetricsSource.GetQueryTimeout())
	defer cancel()
	results, err := detector.Detect(fetchCtx, a.source, a.cfg.Thresholds)
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeMetricsSourceError).
			WithMessage(fmt.Sprintf("detector %s failed", detector.Name())).WithError(err)
	}
	sortResults(results)
	return results, nil
}

// HealthScore folds the severity-weighted penalties of the found
// bottlenecks into a 0-100 score
func (a *Analyzer) HealthScore(results []model.BottleneckResult) float64 {
	score := 100.0
	for _, result := range results {
		score -= a.cfg.Analysis.GetHealthPenalty(result.Severity) * a.cfg.Analysis.GetComponentWeight(result.Component)
	}
	if score < 0 {
		return 0
	}
	return score
}

var severityRank = map[string]int{
	model.SeverityCritical: 0,
	model.SeverityWarning:  1,
}

// sortResults makes the report ordering deterministic regardless of the
// completion order of the parallel fetches: component, then critical
// before warning, then type
func sortResults(results []model.BottleneckResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Component != results[j].Component {
			return results[i].Component < results[j].Component
		}
		if severityRank[results[i].Severity] != severityRank[results[j].Severity] {
			return severityRank[results[i].Severity] < severityRank[results[j].Severity]
		}
		return results[i].Type < results[j].Type
	})
}

func (a *Analyzer) publishMetrics(report *model.Report) {
	healthScoreGauge.Set(report.HealthScore)
	for _, component := range []string{model.ComponentDatabase, model.ComponentMemory, model.ComponentCPU, model.ComponentNetwork} {
		for _, severity := range []string{model.SeverityWarning, model.SeverityCritical} {
			bottleneckGauge.Set(0, component, severity)
		}
	}
	for _, result := range report.Bottlenecks {
		bottleneckGauge.Inc(result.Component, result.Severity)
	}
}

// persistReport stores the pass for history and trend charts; a storage
// failure is logged, the in-memory report is still returned to callers
func (a *Analyzer) persistReport(ctx context.Context, report *model.Report) {
	if a.cfg.Analysis.DisableReportHistory {
		return
	}
	counts := report.CountBySeverity()
	row := &dbmodel.AnalysisReports{
		RunID:           report.RunID,
		StartedAt:       report.StartedAt,
		FinishedAt:      report.FinishedAt,
		HealthScore:     report.HealthScore,
		BottleneckCount: len(report.Bottlenecks),
		CriticalCount:   counts[model.SeverityCritical],
		WarningCount:    counts[model.SeverityWarning],
		GapCount:        len(report.Gaps),
		Payload:         dbmodel.ExtType{"report": report},
	}
	if err := database.GetFacade().GetReport().CreateAnalysisReports(ctx, row); err != nil {
		log.WithContext(ctx).Errorf("Failed to persist report %s: %v", report.RunID, err)
	}
}
