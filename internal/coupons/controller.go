package coupons

import (
	"net/http"

	"travelhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ApplyCoupon godoc
// @Summary      Check a coupon code and preview the discounted total
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Param        body  body      ApplyRequest  true  "Coupon code and optional cart total"
// @Success      200   {object}  response.StandardApiResponse
// @Failure      422   {object}  response.StandardApiResponse
// @Router       /coupons/apply [post]
func (c *Controller) ApplyCoupon(ctx *gin.Context) {
	var req ApplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	d, err := c.service.Apply(ctx.Request.Context(), req.Code)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	out := ApplyResponse{Discount: *d}
	if req.Total != nil {
		final := d.ApplyTo(*req.Total)
		out.Total, out.FinalTotal = req.Total, &final
	}
	response.RespondSuccess(ctx, http.StatusOK, "Coupon applied", out)
}
