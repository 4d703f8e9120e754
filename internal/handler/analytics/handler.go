package analytics

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediconnect/mediconnect-api/internal/middleware"
	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/service/analytics"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/httputil"
)

const defaultReportWindow = 30 * 24 * time.Hour

type Handler struct {
	service *analytics.Service
}

func NewHandler(service *analytics.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.GET("/analytics/report", auth.Authenticate(), auth.RequireRole(model.RoleAdmin), h.Report)
}

func (h *Handler) Report(c *gin.Context) {
	to := time.Now().UTC()
	from := to.Add(-defaultReportWindow)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("from must be YYYY-MM-DD"))
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("to must be YYYY-MM-DD"))
			return
		}
		to = t
	}
	if to.Before(from) {
		httputil.RespondWithError(c, apperrors.BadRequest("to is before from"))
		return
	}

	report, err := h.service.Report(c.Request.Context(), from, to)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, report)
}
