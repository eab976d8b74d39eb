package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/HungtdFPI/TaskforceAF/internal/handler"
	"github.com/HungtdFPI/TaskforceAF/internal/middleware"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/pkg/config"
	"github.com/HungtdFPI/TaskforceAF/pkg/logger"
	corsmiddleware "github.com/HungtdFPI/TaskforceAF/pkg/middleware/cors"
	reqidmiddleware "github.com/HungtdFPI/TaskforceAF/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, deps *services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.store)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	reportHandler := handler.NewReportHandler(deps.reports)
	lifecycleHandler := handler.NewLifecycleHandler(deps.lifecycle)
	historyHandler := handler.NewHistoryHandler(deps.versioning, deps.notes)
	notificationHandler := handler.NewNotificationHandler(deps.notifications)
	insightsHandler := handler.NewInsightsHandler(deps.stats, deps.exports)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.tokens), middleware.WithResponseMeta())

	api.GET("/metrics/system", middleware.RequireRoles(models.RoleHeadOffice), metricsHandler.System)

	reports := api.Group("/reports")
	{
		reports.GET("", reportHandler.List)
		reports.POST("", middleware.RequireRoles(models.RoleLecturer), middleware.Audit(logr, "report.create"), reportHandler.Create)
		reports.GET("/stats", insightsHandler.Stats)
		reports.GET("/export", insightsHandler.Export)
		reports.DELETE("/drafts", middleware.RequireRoles(models.RoleLecturer), middleware.Audit(logr, "report.clear_drafts"), reportHandler.ClearDrafts)
		reports.POST("/submit", middleware.RequireRoles(models.RoleLecturer), middleware.Audit(logr, "report.submit"), lifecycleHandler.Submit)
		reports.POST("/finalize", middleware.RequireRoles(models.RoleDepartmentHead, models.RoleHeadOffice), middleware.Audit(logr, "report.finalize"), lifecycleHandler.Finalize)

		reports.GET("/:id", reportHandler.Get)
		reports.PUT("/:id", middleware.RequireRoles(models.RoleLecturer), middleware.Audit(logr, "report.update"), reportHandler.Update)
		reports.DELETE("/:id", middleware.RequireRoles(models.RoleLecturer), middleware.Audit(logr, "report.delete"), reportHandler.Delete)
		reports.POST("/:id/approve", middleware.RequireRoles(models.RoleSubjectHead, models.RoleDepartmentHead), middleware.Audit(logr, "report.approve"), lifecycleHandler.Approve)
		reports.POST("/:id/reject", middleware.RequireRoles(models.RoleSubjectHead, models.RoleDepartmentHead), middleware.Audit(logr, "report.reject"), lifecycleHandler.Reject)
		reports.PATCH("/:id/care", middleware.RequireRoles(models.RoleStudentAffairs), middleware.Audit(logr, "report.care"), reportHandler.Care)

		reports.GET("/:id/cycles", historyHandler.ListCycles)
		reports.POST("/:id/cycles", middleware.RequireRoles(models.RoleLecturer), middleware.Audit(logr, "report.new_cycle"), historyHandler.RecordCycle)
		reports.GET("/:id/notes/:field", historyHandler.ListNotes)
		reports.POST("/:id/notes/:field", middleware.Audit(logr, "report.note"), historyHandler.AppendNote)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationHandler.Feed)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	return r
}
