package profiles

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

func (c *Controller) GetMyProfile(ctx *gin.Context) {
	p, err := c.service.Get(ctx.Request.Context(), session.FromGin(ctx))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Profile retrieved successfully", p)
}

func (c *Controller) UpdateMyProfile(ctx *gin.Context) {
	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	p, err := c.service.Update(ctx.Request.Context(), session.FromGin(ctx), &req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Profile updated successfully", p)
}

func (c *Controller) ListPremiumPlans(ctx *gin.Context) {
	out := make([]gin.H, 0, len(plans))
	for _, p := range []PremiumPlan{PlanMonthly, PlanYearly} {
		t := plans[p]
		out = append(out, gin.H{"plan": p, "price": t.Price, "days": int(t.Duration.Hours() / 24)})
	}
	response.RespondSuccess(ctx, http.StatusOK, "Premium plans", out)
}
