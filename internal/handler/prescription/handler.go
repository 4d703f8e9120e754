package prescription

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/middleware"
	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/service/prescription"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/httputil"
)

type Handler struct {
	service *prescription.Service
}

func NewHandler(service *prescription.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	prescriptions := r.Group("/prescriptions", auth.Authenticate())
	prescriptions.POST("", auth.RequireRole(model.RolePatient), h.Submit)
	prescriptions.GET("", auth.RequireRole(model.RolePatient), h.ListMine)
	prescriptions.GET("/pending", auth.RequireRole(model.RolePharmacist), h.ListPending)
	prescriptions.POST("/:id/review", auth.RequireRole(model.RolePharmacist), h.Review)
}

func (h *Handler) Submit(c *gin.Context) {
	patientID, _ := middleware.UserID(c)

	var req model.SubmitPrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	p, err := h.service.Submit(c.Request.Context(), patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) ListMine(c *gin.Context) {
	patientID, _ := middleware.UserID(c)

	prescriptions, err := h.service.ListForPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, prescriptions)
}

func (h *Handler) ListPending(c *gin.Context) {
	prescriptions, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, prescriptions)
}

func (h *Handler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid prescription id"))
		return
	}
	reviewerID, _ := middleware.UserID(c)

	var req model.ReviewPrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	p, err := h.service.Review(c.Request.Context(), id, reviewerID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}
