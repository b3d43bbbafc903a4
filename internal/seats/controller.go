package seats

import (
	"net/http"

	"travelhub/internal/catalog"
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

// GetLayout godoc
// @Summary      Seat layout for a catalog item
// @Tags         inventory
// @Produce      json
// @Param        kind    path  string  true  "flights, trains, buses, movies or events"
// @Param        itemId  path  string  true  "Item id"
// @Success      200  {object}  response.StandardApiResponse
// @Router       /inventory/{kind}/{itemId} [get]
func (c *Controller) GetLayout(ctx *gin.Context) {
	kind, ok := catalog.ParseKind(ctx.Param("kind"))
	if !ok {
		response.RespondError(ctx, apperrors.Validation("kind", "unknown catalog vertical"))
		return
	}
	itemID, err := uuid.Parse(ctx.Param("itemId"))
	if err != nil {
		response.RespondError(ctx, apperrors.Validation("item_id", "must be a valid id"))
		return
	}

	layout, err := c.service.Layout(ctx.Request.Context(), kind, itemID, session.FromGin(ctx))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Seat layout retrieved successfully", layout)
}

func (c *Controller) HoldSeats(ctx *gin.Context) {
	var req HoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	hold, err := c.service.Hold(ctx.Request.Context(), session.FromGin(ctx), &req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusCreated, "Seats held successfully", hold)
}

func (c *Controller) ReleaseHold(ctx *gin.Context) {
	holdID := ctx.Param("holdId")
	if _, err := uuid.Parse(holdID); err != nil {
		response.RespondError(ctx, apperrors.Validation("hold_id", "must be a valid id"))
		return
	}

	n, err := c.service.Release(ctx.Request.Context(), session.FromGin(ctx), holdID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Hold released successfully", gin.H{"released_seats": n})
}
