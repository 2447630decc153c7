package bootstrap

import (
	"context"

	"github.com/perflens/bottleneck-analyzer/pkg/api"
	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/jobs"
	"github.com/perflens/bottleneck-analyzer/pkg/metricsource"
	"github.com/perflens/bottleneck-analyzer/pkg/module/alerts"
	"github.com/perflens/bottleneck-analyzer/pkg/module/analyzer"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
	"github.com/perflens/bottleneck-analyzer/pkg/router"
	"github.com/perflens/bottleneck-analyzer/pkg/server"
)

func Bootstrap(ctx context.Context) error {
	return server.InitServerWithPreInitFunc(ctx, func(ctx context.Context, cfg *config.Config) error {
		source, err := metricsource.NewClient(cfg.MetricsSource)
		if err != nil {
			return err
		}
		alertRouter, err := alerts.NewRouter(cfg.Alerts)
		if err != nil {
			return err
		}

		baselines := baseline.NewManager(cfg.Analysis.GetMinSamples())
		engine := analyzer.New(cfg, source, baselines, alertRouter)
		api.Init(engine)

		router.RegisterGroup(api.InitRoutes)
		return jobs.Start(ctx, engine, cfg)
	})
}
