package router

import (
	"myEventReco/internal/middleware"
	"myEventReco/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler) {
	api.POST("/recommendations", handler.Recommend)
}

func SetExperimentRoutes(api *echo.Group, handler *rest.ExperimentHandler, significance *rest.SignificanceHandler) {
	experiments := api.Group("/experiments")
	experiments.POST("/assign", handler.Assign)
	experiments.POST("/significance", significance.Compare)
}

func SetTelemetryRoutes(api *echo.Group, handler *rest.TelemetryHandler) {
	telemetry := api.Group("/telemetry")
	telemetry.POST("/events", handler.RecordEvent)
	telemetry.POST("/clicks", handler.RecordClick)
}

func SetExperimentAdminRoutes(api *echo.Group, handler *rest.ExperimentAdminHandler) {
	admin := api.Group("/admin/experiments", middleware.AuthRequired(), middleware.AdminOnly())

	admin.GET("/config", handler.GetConfig)
	admin.PUT("/config", handler.UpsertConfig)
	admin.GET("/:key/report", handler.Report)
}
