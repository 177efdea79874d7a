package clinic

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetbook-api/internal/handler"
	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/internal/model"
	clinicService "github.com/jwalitptl/vetbook-api/internal/service/clinic"
)

type Handler struct {
	service *clinicService.Service
}

func NewHandler(service *clinicService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	clinics := r.Group("/clinics")
	{
		clinics.GET("", h.ListClinics)
		clinics.GET("/:id", h.GetClinic)
		clinics.GET("/:id/veterinarians", h.ListVeterinarians)
	}

	admin := clinics.Group("", authMW.Authenticate(), authMW.RequireRole(model.RoleAdmin))
	{
		admin.POST("", h.CreateClinic)
		admin.PUT("/:id", h.UpdateClinic)
		admin.DELETE("/:id", h.DeleteClinic)
	}
}

func (h *Handler) CreateClinic(c *gin.Context) {
	var req model.CreateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindFailed(c, err)
		return
	}

	clinic, err := h.service.CreateClinic(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(clinic))
}

func (h *Handler) GetClinic(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	clinic, err := h.service.GetClinic(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}

func (h *Handler) ListClinics(c *gin.Context) {
	var filter model.ClinicFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.BindFailed(c, err)
		return
	}

	clinics, err := h.service.ListClinics(c.Request.Context(), &filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinics))
}

func (h *Handler) UpdateClinic(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindFailed(c, err)
		return
	}

	clinic, err := h.service.UpdateClinic(c.Request.Context(), id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}

func (h *Handler) DeleteClinic(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteClinic(c.Request.Context(), id); err != nil {
		handler.Fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListVeterinarians(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	vets, err := h.service.ListVeterinarians(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(vets))
}
