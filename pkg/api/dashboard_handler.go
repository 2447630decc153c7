package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/perflens/bottleneck-analyzer/pkg/database"
	"github.com/perflens/bottleneck-analyzer/pkg/errors"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/model/rest"
	"github.com/perflens/bottleneck-analyzer/pkg/module/dashboard"
)

// GetDashboard handles GET /v1/dashboard - project the latest report and
// stored baselines into the dashboard structure
func GetDashboard(ctx *gin.Context) {
	row, err := latestReportRow(ctx)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	if row == nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.RequestDataNotExisted).
			WithMessage("no analysis pass recorded yet"))
		return
	}
	report, err := reportFromRow(row)
	if err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.InvalidDataError).
			WithMessage("stored report payload is unreadable").WithError(err))
		return
	}

	stored, err := database.GetFacade().GetBaseline().ListMetricBaseliness(ctx.Request.Context(), ctx.Query("component"))
	if err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessage("failed to list baselines").WithError(err))
		return
	}
	baselines := make([]model.Baseline, 0, len(stored))
	for _, b := range stored {
		baselines = append(baselines, model.Baseline{
			Component:   b.Component,
			Metric:      b.MetricName,
			Mean:        b.Mean,
			StdDev:      b.StddevValue,
			P50:         b.P50,
			P95:         b.P95,
			P99:         b.P99,
			SampleCount: b.SampleCount,
			ComputedAt:  b.ComputedAt,
		})
	}

	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(),
		dashboard.GenerateDashboardData(report, baselines)))
}

// TrendRequest selects the metric window for a trend chart
type TrendRequest struct {
	Component string `form:"component" binding:"required"`
	Metric    string `form:"metric" binding:"required"`
}

// GetTrendChart handles GET /v1/dashboard/trend - the live series of one
// metric laid next to its baseline bands
func GetTrendChart(ctx *gin.Context) {
	var req TrendRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.RequestParameterInvalid).
			WithMessage("component and metric are required").WithError(err))
		return
	}

	series, stored, err := engine.TrendWindow(ctx.Request.Context(), req.Component, req.Metric)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	chart := dashboard.GenerateTrendChartData(req.Component+"_"+req.Metric, series, stored)
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), chart))
}
