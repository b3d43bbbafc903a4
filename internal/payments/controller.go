package payments

import (
	"net/http"

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

// SubmitPayment godoc
// @Summary      Pay for an unpaid booking
// @Description  Records a completed payment for a booking created without one. The amount must equal the booking total.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      SubmitRequest  true  "Booking id, amount and method-specific fields"
// @Success      201   {object}  response.StandardApiResponse
// @Failure      400   {object}  response.StandardApiResponse
// @Failure      402   {object}  response.StandardApiResponse
// @Router       /payments [post]
func (c *Controller) SubmitPayment(ctx *gin.Context) {
	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	payment, err := c.service.Submit(ctx.Request.Context(), session.FromGin(ctx), &req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusCreated, "Payment completed successfully", payment)
}
