package checkout

import (
	"net/http"

	"travelhub/internal/shared/session"
	"travelhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

const IdempotencyHeader = "Idempotency-Key"

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Checkout godoc
// @Summary      Book an item and optionally pay for it
// @Description  Prices the selected seats, redeems the coupon, creates the booking and records the payment atomically.
// @Description  A repeated Idempotency-Key returns the first result for 24h.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string   false  "Client-generated key for safe retries"
// @Param        body             body      Request  true   "Item, seats, coupon and payment"
// @Success      201  {object}  response.StandardApiResponse
// @Success      200  {object}  response.StandardApiResponse  "Replayed result"
// @Failure      401  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Failure      422  {object}  response.StandardApiResponse
// @Router       /checkout [post]
func (c *Controller) Checkout(ctx *gin.Context) {
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	result, err := c.service.Checkout(ctx.Request.Context(), session.FromGin(ctx), ctx.GetHeader(IdempotencyHeader), &req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	if result.Replayed {
		response.RespondSuccess(ctx, http.StatusOK, "Booking already created", result)
		return
	}
	response.RespondSuccess(ctx, http.StatusCreated, "Booking created successfully", result)
}
