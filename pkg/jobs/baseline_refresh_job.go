package jobs

import (
	"context"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/module/analyzer"
)

// BaselineRefreshJob recomputes every component's baselines from a fresh
// sample window so they track slow drift in normal behavior
type BaselineRefreshJob struct {
	engine   *analyzer.Analyzer
	schedule string
}

func NewBaselineRefreshJob(engine *analyzer.Analyzer, cfg config.JobsConfig) *BaselineRefreshJob {
	schedule := cfg.BaselineRefreshCron
	if schedule == "" {
		schedule = "@every 1h"
	}
	return &BaselineRefreshJob{engine: engine, schedule: schedule}
}

func (j *BaselineRefreshJob) Schedule() string {
	return j.schedule
}

func (j *BaselineRefreshJob) Run(ctx context.Context) error {
	j.engine.UpdateAllBaselines(ctx)
	return nil
}
