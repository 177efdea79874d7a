package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/handler"
	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/service/appointment"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments", authMW.Authenticate())
	{
		appointments.POST("", authMW.RequireRole(model.RoleOwner), h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)

		staff := appointments.Group("", authMW.RequireRole(model.RoleVeterinarian, model.RoleAdmin))
		staff.POST("/:id/confirm", h.ConfirmAppointment)
		staff.POST("/:id/complete", h.CompleteAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindFailed(c, err)
		return
	}

	apt, err := h.service.Book(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	apt, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	var filter model.AppointmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.BindFailed(c, err)
		return
	}
	if filter.ClinicID, ok = handler.QueryID(c, "clinic_id"); !ok {
		return
	}
	if filter.VeterinarianID, ok = handler.QueryID(c, "veterinarian_id"); !ok {
		return
	}
	if filter.OwnerID, ok = handler.QueryID(c, "owner_id"); !ok {
		return
	}

	apts, err := h.service.List(c.Request.Context(), actor, &filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apts))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	var req model.CancelAppointmentRequest
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handler.BindFailed(c, err)
			return
		}
	}

	h.transition(c, func(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
		return h.service.Cancel(ctx, actor, id, req.Reason)
	})
}

func (h *Handler) ConfirmAppointment(c *gin.Context) {
	h.transition(c, h.service.Confirm)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

type transitionFunc func(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error)

func (h *Handler) transition(c *gin.Context, apply transitionFunc) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	apt, err := apply(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}
