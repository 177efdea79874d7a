package pet

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetbook-api/internal/handler"
	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/service/pet"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
)

type Handler struct {
	service *pet.Service
}

func NewHandler(service *pet.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	pets := r.Group("/pets", authMW.Authenticate())
	{
		pets.POST("", h.CreatePet)
		pets.GET("", h.ListPets)
		pets.GET("/:id", h.GetPet)
		pets.PUT("/:id", h.UpdatePet)
		pets.DELETE("/:id", h.DeletePet)
	}
}

func (h *Handler) CreatePet(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	var req model.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindFailed(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) ListPets(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	pets, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(pets))
}

func (h *Handler) GetPet(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) UpdatePet(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindFailed(c, err)
		return
	}

	p, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) DeletePet(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		handler.Fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
