package history

import (
	"net/http"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/session"
	"travelhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ListBookings godoc
// @Summary      List the caller's bookings
// @Description  Newest first, grouped by booking type. Each row carries its payment (or null) and can_cancel.
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        type    query     string  false  "Booking type filter"
// @Param        status  query     string  false  "Ticket status filter"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      401  {object}  response.StandardApiResponse
// @Router       /bookings [get]
func (c *Controller) ListBookings(ctx *gin.Context) {
	var q Query
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RespondError(ctx, apperrors.Validation("query", err.Error()))
		return
	}

	view, err := c.service.List(ctx.Request.Context(), session.FromGin(ctx), q)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Bookings retrieved successfully", view)
}
