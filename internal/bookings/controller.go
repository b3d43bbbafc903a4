package bookings

import (
	"net/http"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/session"
	"travelhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetBooking godoc
// @Summary      Get one of the caller's bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking id"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /bookings/{id} [get]
func (c *Controller) GetBooking(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, apperrors.Validation("id", "must be a valid booking id"))
		return
	}

	b, err := c.service.Get(ctx.Request.Context(), session.FromGin(ctx), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Booking retrieved successfully", b)
}

// CancelBooking godoc
// @Summary      Cancel a booking
// @Description  Cancelling an already cancelled booking succeeds and leaves it cancelled.
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking id"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      400  {object}  response.StandardApiResponse
// @Router       /bookings/{id}/cancel [post]
func (c *Controller) CancelBooking(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, apperrors.Validation("id", "must be a valid booking id"))
		return
	}

	b, err := c.service.Cancel(ctx.Request.Context(), session.FromGin(ctx), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Booking cancelled successfully", b)
}
