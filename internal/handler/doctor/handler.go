package doctor

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/middleware"
	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/service/doctor"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/httputil"
)

type Handler struct {
	service *doctor.Service
}

func NewHandler(service *doctor.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.GET("/doctors", h.List)
	r.GET("/doctors/:id", h.Get)
	r.PUT("/doctors/me/profile", auth.Authenticate(), auth.RequireRole(model.RoleDoctor), h.UpdateProfile)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.DoctorFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	doctors, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor id"))
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	doctorID, _ := middleware.UserID(c)

	var req model.UpdateDoctorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	d, err := h.service.UpdateProfile(c.Request.Context(), doctorID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}
