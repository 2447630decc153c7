package api

import "github.com/gin-gonic/gin"

// InitRoutes registers every analysis endpoint on the shared group
func InitRoutes(group *gin.RouterGroup) error {
	group.POST("analysis/run", RunAnalysis)
	group.POST("analysis/detectors/:component/run", RunDetector)

	group.GET("baselines", ListBaselines)
	group.POST("baselines/compare", CompareBaseline)
	group.POST("baselines/anomaly-check", CheckAnomaly)
	group.POST("baselines/:component/refresh", RefreshBaselines)

	group.GET("health-score", GetHealthScore)
	group.GET("reports", ListReports)
	group.GET("reports/:run_id", GetReport)
	group.GET("dispatches", ListDispatches)

	group.GET("dashboard", GetDashboard)
	group.GET("dashboard/trend", GetTrendChart)

	return nil
}
