package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetbook-api/internal/handler"
	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/service/auth"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	me := r.Group("/me", authMW.Authenticate())
	{
		me.GET("", h.Me)
		me.GET("/preferences", h.GetPreferences)
		me.PUT("/preferences", h.UpdatePreferences)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindFailed(c, err)
		return
	}

	tokens, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(tokens))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindFailed(c, err)
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) Me(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	user, err := h.svc.Me(c.Request.Context(), actor.UserID)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}

func (h *Handler) GetPreferences(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	prefs, err := h.svc.GetPreferences(c.Request.Context(), actor.UserID)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(prefs))
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	var req model.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindFailed(c, err)
		return
	}

	prefs, err := h.svc.UpdatePreferences(c.Request.Context(), actor.UserID, req.Preferences)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(prefs))
}
