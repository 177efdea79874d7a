package notification

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetbook-api/internal/handler"
	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/service/notification"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
)

// streamBuffer bounds the notifications queued for a slow stream client.
// Overflow is dropped; the rows stay readable through List.
const streamBuffer = 16

// DefaultKeepAlive is the ping interval that keeps idle streams open
// through proxies.
const DefaultKeepAlive = 25 * time.Second

type Handler struct {
	service   *notification.Service
	keepAlive time.Duration
}

func NewHandler(service *notification.Service, keepAlive time.Duration) *Handler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &Handler{service: service, keepAlive: keepAlive}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	r.GET("/notifications/stream", authMW.AuthenticateStream(), h.Stream)

	notifications := r.Group("/notifications", authMW.Authenticate())
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.POST("/:id/read", h.MarkRead)
	}
}

type listQuery struct {
	model.Pagination
	Unread bool `form:"unread"`
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handler.BindFailed(c, err)
		return
	}

	items, err := h.service.List(c.Request.Context(), actor.UserID, q.Unread, q.Pagination)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) UnreadCount(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	n, err := h.service.UnreadCount(c.Request.Context(), actor.UserID)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"unread": n}))
}

func (h *Handler) MarkRead(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), actor.UserID, id); err != nil {
		handler.Fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	n, err := h.service.MarkAllRead(c.Request.Context(), actor.UserID)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"updated": n}))
}

// Stream pushes the caller's new notifications as server-sent events until
// the client disconnects.
func (h *Handler) Stream(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		handler.Fail(c, apperrors.Unauthorized(nil))
		return
	}

	ctx := c.Request.Context()
	queue := make(chan *model.Notification, streamBuffer)
	unsub, err := h.service.Subscribe(ctx, actor.UserID, func(n *model.Notification) {
		select {
		case queue <- n:
		default:
		}
	})
	if err != nil {
		handler.Fail(c, apperrors.Unavailable("notification stream unavailable", err))
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.SSEvent("ready", gin.H{"user_id": actor.UserID})
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case n := <-queue:
			c.SSEvent("notification", n)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
