package availability

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/handler"
	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/internal/service/availability"
)

type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, _ *middleware.AuthMiddleware) {
	r.GET("/availability", h.GetAvailability)
}

// availabilityQuery leaves Date unchecked: a malformed date yields no slots
// and tells the client to fall back to free-text entry.
type availabilityQuery struct {
	ClinicID       string `form:"clinic_id" binding:"required,uuid"`
	VeterinarianID string `form:"veterinarian_id" binding:"required,uuid"`
	Date           string `form:"date" binding:"required"`
}

// GetAvailability lists the bookable times for one veterinarian and day.
func (h *Handler) GetAvailability(c *gin.Context) {
	var q availabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handler.BindFailed(c, err)
		return
	}

	day, err := h.service.DaySlots(c.Request.Context(),
		uuid.MustParse(q.ClinicID), uuid.MustParse(q.VeterinarianID), q.Date)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(day))
}
