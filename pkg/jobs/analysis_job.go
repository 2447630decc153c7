package jobs

import (
	"context"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/module/analyzer"
)

// AnalysisJob runs a full analysis pass on schedule
type AnalysisJob struct {
	engine   *analyzer.Analyzer
	schedule string
}

func NewAnalysisJob(engine *analyzer.Analyzer, cfg config.JobsConfig) *AnalysisJob {
	schedule := cfg.AnalysisCron
	if schedule == "" {
		schedule = "@every 1m"
	}
	return &AnalysisJob{engine: engine, schedule: schedule}
}

func (j *AnalysisJob) Schedule() string {
	return j.schedule
}

func (j *AnalysisJob) Run(ctx context.Context) error {
	report, err := j.engine.RunAnalysis(ctx)
	if err != nil {
		return err
	}
	log.Debugf("AnalysisJob: pass %s found %d bottleneck(s)", report.RunID, len(report.Bottlenecks))
	return nil
}
