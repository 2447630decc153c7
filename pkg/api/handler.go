package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/perflens/bottleneck-analyzer/pkg/database"
	dbmodel "github.com/perflens/bottleneck-analyzer/pkg/database/model"
	"github.com/perflens/bottleneck-analyzer/pkg/errors"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/model/rest"
	"github.com/perflens/bottleneck-analyzer/pkg/module/analyzer"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
)

var engine *analyzer.Analyzer

// Init wires the analysis engine the handlers delegate to
func Init(a *analyzer.Analyzer) {
	engine = a
}

// RunAnalysis handles POST /v1/analysis/run - execute one full pass
func RunAnalysis(ctx *gin.Context) {
	report, err := engine.RunAnalysis(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.InternalError).
			WithMessage("analysis pass failed").WithError(err))
		return
	}
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), report))
}

// RunDetector handles POST /v1/analysis/detectors/:component/run
func RunDetector(ctx *gin.Context) {
	component := ctx.Param("component")
	results, err := engine.RunDetector(ctx.Request.Context(), component)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), results))
}

// RefreshBaselines handles POST /v1/baselines/:component/refresh -
// recompute a component's baselines from a fresh sample window
func RefreshBaselines(ctx *gin.Context) {
	component := ctx.Param("component")
	updated, err := engine.UpdateComponentBaselines(ctx.Request.Context(), component)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), updated))
}

// ListBaselines handles GET /v1/baselines - list stored baselines,
// optionally filtered by component
func ListBaselines(ctx *gin.Context) {
	component := ctx.Query("component")
	baselines, err := database.GetFacade().GetBaseline().ListMetricBaseliness(ctx.Request.Context(), component)
	if err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessage("failed to list baselines").WithError(err))
		return
	}
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), rest.NewListData(baselines, len(baselines))))
}

// CompareRequest is the diagnostic comparison body
type CompareRequest struct {
	Component string  `json:"component" binding:"required"`
	Metric    string  `json:"metric" binding:"required"`
	Value     float64 `json:"value"`
}

// CompareBaseline handles POST /v1/baselines/compare - relate an
// arbitrary value to a stored baseline
func CompareBaseline(ctx *gin.Context) {
	var req CompareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.RequestParameterInvalid).
			WithMessage("invalid comparison request").WithError(err))
		return
	}
	comparison, err := engine.CompareToBaseline(ctx.Request.Context(), req.Component, req.Metric, req.Value)
	if err != nil {
		if err == baseline.ErrNoBaseline {
			_ = ctx.Error(errors.NewError().WithCode(errors.RequestDataNotExisted).
				WithMessage("no baseline stored for metric"))
			return
		}
		_ = ctx.Error(errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessage("baseline lookup failed").WithError(err))
		return
	}
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), comparison))
}

// CheckAnomaly handles POST /v1/baselines/anomaly-check - score a value
// against the metric's fresh sample window with the configured strategy
func CheckAnomaly(ctx *gin.Context) {
	var req CompareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.RequestParameterInvalid).
			WithMessage("invalid anomaly check request").WithError(err))
		return
	}
	score, err := engine.CheckAnomaly(ctx.Request.Context(), req.Component, req.Metric, req.Value)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), score))
}

// GetHealthScore handles GET /v1/health-score - health of the latest pass
func GetHealthScore(ctx *gin.Context) {
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
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), gin.H{
		"run_id":       row.RunID,
		"health_score": row.HealthScore,
		"finished_at":  row.FinishedAt,
	}))
}

// ListReports handles GET /v1/reports - paged report history
func ListReports(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	rows, total, err := database.GetFacade().GetReport().ListAnalysisReportss(ctx.Request.Context(),
		&database.AnalysisReportsFilter{Offset: offset, Limit: limit})
	if err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessage("failed to list reports").WithError(err))
		return
	}
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), rest.NewListData(rows, int(total))))
}

// GetReport handles GET /v1/reports/:run_id - one full report
func GetReport(ctx *gin.Context) {
	runID := ctx.Param("run_id")
	row, err := database.GetFacade().GetReport().GetAnalysisReportsByRunID(ctx.Request.Context(), runID)
	if err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessage("failed to load report").WithError(err))
		return
	}
	if row == nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.RequestDataNotExisted).
			WithMessage("report not found"))
		return
	}
	report, err := reportFromRow(row)
	if err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.InvalidDataError).
			WithMessage("stored report payload is unreadable").WithError(err))
		return
	}
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), report))
}

// ListDispatches handles GET /v1/dispatches - alert delivery audit trail
func ListDispatches(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	filter := &database.AlertDispatchesFilter{Offset: offset, Limit: limit}
	if component := ctx.Query("component"); component != "" {
		filter.Component = &component
	}
	if severity := ctx.Query("severity"); severity != "" {
		filter.Severity = &severity
	}
	if outcome := ctx.Query("outcome"); outcome != "" {
		filter.Outcome = &outcome
	}
	if channel := ctx.Query("channel"); channel != "" {
		filter.Channel = &channel
	}

	rows, total, err := database.GetFacade().GetDispatch().ListAlertDispatchess(ctx.Request.Context(), filter)
	if err != nil {
		_ = ctx.Error(errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessage("failed to list dispatches").WithError(err))
		return
	}
	ctx.JSON(http.StatusOK, rest.SuccessResp(ctx.Request.Context(), rest.NewListData(rows, int(total))))
}

func latestReportRow(ctx *gin.Context) (*dbmodel.AnalysisReports, error) {
	rows, _, err := database.GetFacade().GetReport().ListAnalysisReportss(ctx.Request.Context(),
		&database.AnalysisReportsFilter{Limit: 1})
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessage("failed to load latest report").WithError(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	latest := rows[0]
	for _, row := range rows[1:] {
		if row.StartedAt.After(latest.StartedAt) {
			latest = row
		}
	}
	return latest, nil
}

// reportFromRow decodes the full report out of the persisted payload
func reportFromRow(row *dbmodel.AnalysisReports) (*model.Report, error) {
	raw, err := json.Marshal(row.Payload["report"])
	if err != nil {
		return nil, err
	}
	var report model.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		log.Errorf("Failed to decode report %s payload: %v", row.RunID, err)
		return nil, err
	}
	return &report, nil
}
