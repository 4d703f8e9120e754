package appointment

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/middleware"
	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/service/appointment"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/httputil"
	"github.com/mediconnect/mediconnect-api/pkg/metrics"
)

type Handler struct {
	service *appointment.Service
	metrics *metrics.Metrics
}

func NewHandler(service *appointment.Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.GET("/doctors/:id/availability", h.GetAvailability)

	appointments := r.Group("/appointments", auth.Authenticate())
	appointments.POST("", auth.RequireRole(model.RolePatient), h.Book)
	appointments.GET("", h.List)
	appointments.GET("/:id", h.Get)
	appointments.POST("/:id/cancel", h.Cancel)
	appointments.PATCH("/:id/status", auth.RequireRole(model.RoleDoctor), h.UpdateStatus)
}

// GetAvailability is public so patients can browse slots before
// signing in.
func (h *Handler) GetAvailability(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor id"))
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("date must be YYYY-MM-DD"))
		return
	}

	slots, err := h.service.GetAvailability(c.Request.Context(), doctorID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{
		"doctor_id": doctorID,
		"date":      date.Format("2006-01-02"),
		"slots":     slots,
	})
}

func (h *Handler) Book(c *gin.Context) {
	patientID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	apt, err := h.service.Book(c.Request.Context(), patientID, &req)
	if err != nil {
		if errors.Is(err, appointment.ErrSlotConflict) {
			h.metrics.BookingConflicts.Inc()
		}
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.AppointmentsBooked.Inc()
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment id"))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

// List returns the caller's own appointments; doctors see their
// schedule, patients their bookings.
func (h *Handler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	role := c.GetString(middleware.ContextRole)

	filters := &model.AppointmentFilters{}
	switch role {
	case model.RoleDoctor:
		filters.DoctorID = userID
	default:
		filters.PatientID = userID
	}
	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("from must be YYYY-MM-DD"))
			return
		}
		filters.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("to must be YYYY-MM-DD"))
			return
		}
		filters.To = t
	}

	appointments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment id"))
		return
	}
	actorID, _ := middleware.UserID(c)

	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	apt, err := h.service.Cancel(c.Request.Context(), id, actorID, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.AppointmentsCancelled.Inc()
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment id"))
		return
	}
	actorID, _ := middleware.UserID(c)

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	apt, err := h.service.UpdateStatus(c.Request.Context(), id, actorID, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}
