package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/clearday/internal/domain/auth"
	"github.com/yanqian/clearday/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		errorHandlingMiddleware(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, logger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/aqi", handler.ComputeAQI)
		api.GET("/aqi/classify", handler.ClassifyAQI)
	}

	authed := api.Group("")
	authed.Use(authMiddleware(authSvc))
	{
		authed.POST("/dashboard/refresh", handler.RefreshDashboard)
		authed.GET("/dashboard", handler.DashboardStatus)

		authed.GET("/daily-logs/:date", handler.GetDailyLog)
		authed.PUT("/daily-logs/:date/symptoms", handler.PutSymptoms)
		authed.GET("/risk/:date", handler.GetRisk)

		authed.GET("/calendar/:month", handler.GetCalendar)
		authed.POST("/calendar/:month/export", handler.ExportCalendar)
		authed.GET("/exports", handler.GetExport)

		authed.GET("/pollen/forecast", handler.PollenForecast)

		authed.GET("/profile", handler.GetProfile)
		authed.PUT("/profile", handler.UpdateProfile)
		authed.PUT("/profile/briefing-time", handler.UpdateBriefingTime)

		authed.POST("/briefings", handler.SendBriefing)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
