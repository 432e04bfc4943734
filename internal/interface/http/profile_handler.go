package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/clearday/internal/domain/profile"
	"github.com/yanqian/clearday/pkg/caldate"
)

type allergensRequest struct {
	TrackedAllergens []string `json:"trackedAllergens"`
}

type briefingTimeRequest struct {
	Hour   *int `json:"hour" binding:"required"`
	Minute *int `json:"minute" binding:"required"`
}

type briefingRequest struct {
	Date string `json:"date"`
}

// GetProfile returns the caller's preferences, or defaults.
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.profileSvc.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfile replaces the tracked allergens.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req allergensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.profileSvc.UpdateAllergens(c.Request.Context(), currentUser(c), req.TrackedAllergens)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateBriefingTime sets the local time of the morning briefing.
func (h *Handler) UpdateBriefingTime(c *gin.Context) {
	var req briefingTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.profileSvc.UpdateBriefingTime(c.Request.Context(), currentUser(c),
		profile.BriefingTime{Hour: *req.Hour, Minute: *req.Minute})
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SendBriefing composes and delivers the briefing of a date, today when omitted.
func (h *Handler) SendBriefing(c *gin.Context) {
	var req briefingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.Date == "" {
		req.Date = h.today()
	}
	date, err := caldate.Parse(req.Date)
	if err != nil {
		badRequest(c, err)
		return
	}

	msg, err := h.briefingSvc.Send(c.Request.Context(), currentUser(c), date)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}
