package pharmacy

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/middleware"
	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/service/medicine"
	"github.com/mediconnect/mediconnect-api/internal/service/order"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/httputil"
)

// Handler serves the medicine catalogue and the order flow.
type Handler struct {
	medicines *medicine.Service
	orders    *order.Service
}

func NewHandler(medicines *medicine.Service, orders *order.Service) *Handler {
	return &Handler{medicines: medicines, orders: orders}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.GET("/medicines", h.ListMedicines)
	r.GET("/medicines/:id", h.GetMedicine)

	staff := r.Group("/medicines", auth.Authenticate(),
		auth.RequireRole(model.RolePharmacist, model.RoleAdmin))
	staff.POST("", h.CreateMedicine)
	staff.PUT("/:id", h.UpdateMedicine)

	orders := r.Group("/orders", auth.Authenticate())
	orders.POST("", auth.RequireRole(model.RolePatient), h.PlaceOrder)
	orders.GET("", auth.RequireRole(model.RolePatient), h.ListMyOrders)
	orders.GET("/open", auth.RequireRole(model.RolePharmacist), h.ListOpenOrders)
	orders.GET("/:id", h.GetOrder)
	orders.POST("/:id/cancel", auth.RequireRole(model.RolePatient), h.CancelOrder)
	orders.PATCH("/:id/status", auth.RequireRole(model.RolePharmacist), h.UpdateOrderStatus)
}

func (h *Handler) ListMedicines(c *gin.Context) {
	var filters model.MedicineFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	medicines, err := h.medicines.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, medicines)
}

func (h *Handler) GetMedicine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid medicine id"))
		return
	}

	m, err := h.medicines.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, m)
}

func (h *Handler) CreateMedicine(c *gin.Context) {
	var req model.CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	m, err := h.medicines.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, m)
}

func (h *Handler) UpdateMedicine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid medicine id"))
		return
	}

	var req model.UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	m, err := h.medicines.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, m)
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	patientID, _ := middleware.UserID(c)

	var req model.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	o, err := h.orders.Place(c.Request.Context(), patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, o)
}

func (h *Handler) ListMyOrders(c *gin.Context) {
	patientID, _ := middleware.UserID(c)

	orders, err := h.orders.ListForPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, orders)
}

func (h *Handler) ListOpenOrders(c *gin.Context) {
	orders, err := h.orders.ListOpen(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid order id"))
		return
	}

	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	// Patients only see their own orders.
	callerID, _ := middleware.UserID(c)
	if c.GetString(middleware.ContextRole) == model.RolePatient && o.PatientID != callerID {
		httputil.RespondWithError(c, apperrors.NotFound("order"))
		return
	}
	httputil.RespondWithSuccess(c, o)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid order id"))
		return
	}
	patientID, _ := middleware.UserID(c)

	o, err := h.orders.Cancel(c.Request.Context(), id, patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, o)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid order id"))
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, o)
}
