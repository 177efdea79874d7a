package veterinarian

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/handler"
	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/service/veterinarian"
)

type Handler struct {
	service *veterinarian.Service
}

func NewHandler(service *veterinarian.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	vets := r.Group("/veterinarians", authMW.Authenticate(), authMW.RequireRole(model.RoleAdmin))
	{
		vets.GET("", h.List)
		vets.GET("/:id", h.Get)
		vets.POST("/:id/approve", h.Approve)
		vets.POST("/:id/reject", h.Reject)
	}
}

func (h *Handler) List(c *gin.Context) {
	var filter model.VeterinarianFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.BindFailed(c, err)
		return
	}
	clinicID, ok := handler.QueryID(c, "clinic_id")
	if !ok {
		return
	}
	filter.ClinicID = clinicID

	vets, err := h.service.List(c.Request.Context(), &filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(vets))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	vet, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(vet))
}

func (h *Handler) Approve(c *gin.Context) {
	h.setStatus(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.setStatus(c, h.service.Reject)
}

func (h *Handler) setStatus(c *gin.Context, apply func(context.Context, uuid.UUID) (*model.Veterinarian, error)) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	vet, err := apply(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(vet))
}
