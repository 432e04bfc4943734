package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/clearday/internal/domain/allergen"
	"github.com/yanqian/clearday/internal/domain/calendar"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/internal/domain/symptoms"
	"github.com/yanqian/clearday/pkg/caldate"
	apperrors "github.com/yanqian/clearday/pkg/errors"
)

type symptomsRequest struct {
	GeneralSeverity *int           `json:"generalSeverity" binding:"required"`
	Symptoms        map[string]int `json:"symptoms"`
}

// GetDailyLog returns the stored record of a date.
func (h *Handler) GetDailyLog(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	rec, err := h.logSvc.Get(c.Request.Context(), currentUser(c), date)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// PutSymptoms replaces the symptom entry of a date and returns the merged record.
func (h *Handler) PutSymptoms(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	var req symptomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := symptoms.NewEntry(date, *req.GeneralSeverity, req.Symptoms)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	rec, err := h.logSvc.Apply(c.Request.Context(), currentUser(c), dailylog.SymptomsUpdate(date, entry))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetRisk computes the allergen risk of a date from its stored pollen.
func (h *Handler) GetRisk(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := currentUser(c)

	day := pollen.DayRecord{Date: date}
	rec, err := h.logSvc.Get(ctx, userID, date)
	switch {
	case err == nil:
		if rec.Pollen != nil {
			day = *rec.Pollen
		}
	case !apperrors.IsCode(err, apperrors.CodeNotFound):
		abortWithDomainError(c, err)
		return
	}

	p, err := h.profileSvc.Get(ctx, userID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	risk := allergen.ComputeRisk(p.Tracked(), day)
	c.JSON(http.StatusOK, gin.H{
		"date":  date,
		"risk":  risk,
		"alert": allergen.AlertText(risk),
	})
}

type monthResponse struct {
	Month caldate.YearMonth                    `json:"month"`
	Cells map[caldate.Date]calendar.CellVisual `json:"cells"`
	Grid  [][]calendar.GridCell                `json:"grid"`
}

// GetCalendar projects a month of records into cell visuals.
func (h *Handler) GetCalendar(c *gin.Context) {
	month, ok := pathMonth(c)
	if !ok {
		return
	}
	records, err := h.logSvc.Month(c.Request.Context(), currentUser(c), month)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	cells := calendar.ProjectMonth(records, month)
	c.JSON(http.StatusOK, monthResponse{
		Month: month,
		Cells: cells,
		Grid:  calendar.Grid(month, cells),
	})
}

// ExportCalendar archives the month's records and returns the object key.
func (h *Handler) ExportCalendar(c *gin.Context) {
	month, ok := pathMonth(c)
	if !ok {
		return
	}
	obj, err := h.logSvc.ExportMonth(c.Request.Context(), currentUser(c), month)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": obj.Key, "size": obj.Size, "etag": obj.ETag})
}

// GetExport reads back an export owned by the caller.
func (h *Handler) GetExport(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "key is required", nil))
		return
	}
	doc, err := h.logSvc.OpenExport(c.Request.Context(), currentUser(c), key)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func pathDate(c *gin.Context) (caldate.Date, bool) {
	date, err := caldate.Parse(c.Param("date"))
	if err != nil {
		badRequest(c, err)
		return caldate.Date{}, false
	}
	return date, true
}

func pathMonth(c *gin.Context) (caldate.YearMonth, bool) {
	month, err := caldate.ParseYearMonth(c.Param("month"))
	if err != nil {
		badRequest(c, err)
		return caldate.YearMonth{}, false
	}
	return month, true
}
