package notification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/middleware"
	"github.com/mediconnect/mediconnect-api/internal/service/notification"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/httputil"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	notifications := r.Group("/notifications", auth.Authenticate())
	notifications.GET("", h.List)
	notifications.POST("/:id/read", h.MarkRead)
	notifications.POST("/read-all", h.MarkAllRead)
}

func (h *Handler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.service.ListForUser(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, notifications)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid notification id"))
		return
	}
	userID, _ := middleware.UserID(c)

	if err := h.service.MarkRead(c.Request.Context(), id, userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"read": true})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	if err := h.service.MarkAllRead(c.Request.Context(), userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"read": true})
}
