package jobs

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/module/analyzer"
)

type Job interface {
	Run(ctx context.Context) error
	Schedule() string
}

// Start schedules the periodic analysis, baseline refresh and retention
// jobs and returns after the cron runner is up
func Start(ctx context.Context, engine *analyzer.Analyzer, cfg *config.Config) error {
	jobs := []Job{
		NewAnalysisJob(engine, cfg.Jobs),
		NewBaselineRefreshJob(engine, cfg.Jobs),
		NewRetentionJob(),
	}

	c := cron.New()
	for _, job := range jobs {
		job := job
		_, err := c.AddFunc(job.Schedule(), func() {
			if err := job.Run(ctx); err != nil {
				log.Errorf("Job error %v", err)
			}
		})
		if err != nil {
			return err
		}
	}
	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return nil
}
