package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/internal/domain/briefing"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/internal/domain/dashboard"
	"github.com/yanqian/clearday/internal/domain/forecast"
	"github.com/yanqian/clearday/internal/domain/profile"
	"github.com/yanqian/clearday/pkg/geo"
	"github.com/yanqian/clearday/pkg/util"
)

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Dashboard dashboard.Service
	Logs      dailylog.Service
	Profiles  profile.Service
	Forecast  forecast.Service
	Briefings briefing.Service
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	dashboardSvc dashboard.Service
	logSvc       dailylog.Service
	profileSvc   profile.Service
	forecastSvc  forecast.Service
	briefingSvc  briefing.Service
	location     *time.Location
	now          func() time.Time
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler. loc decides what "today" means.
func NewHandler(svcs Services, loc *time.Location, logger *slog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		dashboardSvc: svcs.Dashboard,
		logSvc:       svcs.Logs,
		profileSvc:   svcs.Profiles,
		forecastSvc:  svcs.Forecast,
		briefingSvc:  svcs.Briefings,
		location:     loc,
		now:          time.Now,
		logger:       logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type aqiResponse struct {
	Score    int                 `json:"score"`
	Scale    airquality.Scale    `json:"scale"`
	Category airquality.Category `json:"category"`
	Advice   []string            `json:"advice"`
}

// ComputeAQI derives the EPA index from PM2.5 and PM10 concentrations.
func (h *Handler) ComputeAQI(c *gin.Context) {
	pm25, err := queryFloat(c, "pm25")
	if err != nil {
		badRequest(c, err)
		return
	}
	pm10, err := queryFloat(c, "pm10")
	if err != nil {
		badRequest(c, err)
		return
	}

	rec, err := airquality.FromConcentrations(airquality.PollutantReading{PM25: &pm25, PM10: &pm10}, h.now())
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	category := rec.Category()
	c.JSON(http.StatusOK, aqiResponse{
		Score:    rec.Score,
		Scale:    rec.Scale,
		Category: category,
		Advice:   airquality.HealthAdvice(category),
	})
}

// ClassifyAQI buckets a score on the requested scale, defaulting to EPA.
func (h *Handler) ClassifyAQI(c *gin.Context) {
	score, err := strconv.Atoi(c.Query("score"))
	if err != nil {
		badRequest(c, fmt.Errorf("score must be an integer"))
		return
	}
	scale := airquality.ScaleEPA
	if raw := c.Query("scale"); raw != "" {
		if scale, err = airquality.ParseScale(raw); err != nil {
			badRequest(c, err)
			return
		}
	}
	rec, err := airquality.NewRecord(score, scale, nil, h.now())
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	category := rec.Category()
	c.JSON(http.StatusOK, aqiResponse{
		Score:    rec.Score,
		Scale:    rec.Scale,
		Category: category,
		Advice:   airquality.HealthAdvice(category),
	})
}

type refreshRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lon *float64 `json:"lon" binding:"required"`
}

// RefreshDashboard fetches every source for the caller's location.
func (h *Handler) RefreshDashboard(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.dashboardSvc.Refresh(c.Request.Context(), currentUser(c), geo.Point{Lat: *req.Lat, Lon: *req.Lon})
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DashboardStatus returns the per-source load states.
func (h *Handler) DashboardStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": h.dashboardSvc.Status(c.Request.Context(), currentUser(c))})
}

// PollenForecast returns the upcoming days with the caller's allergen risk.
func (h *Handler) PollenForecast(c *gin.Context) {
	at, err := queryPoint(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil {
			badRequest(c, fmt.Errorf("days must be an integer"))
			return
		}
	}

	out, err := h.forecastSvc.Forecast(c.Request.Context(), currentUser(c), at, days)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": out})
}

func (h *Handler) today() string {
	return util.Today(h.now, h.location).String()
}

func queryFloat(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func queryPoint(c *gin.Context) (geo.Point, error) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		return geo.Point{}, err
	}
	lon, err := queryFloat(c, "lon")
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}
