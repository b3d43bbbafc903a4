package receipts

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

// GetTicket godoc
// @Summary      Download the e-ticket PDF
// @Tags         bookings
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking id"
// @Success      200  {file}    file
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /bookings/{id}/ticket [get]
func (c *Controller) GetTicket(ctx *gin.Context) {
	c.serve(ctx, KindTicket)
}

// GetReceipt godoc
// @Summary      Download the payment receipt PDF
// @Tags         bookings
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking id"
// @Success      200  {file}    file
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /bookings/{id}/receipt [get]
func (c *Controller) GetReceipt(ctx *gin.Context) {
	c.serve(ctx, KindReceipt)
}

func (c *Controller) serve(ctx *gin.Context, kind Kind) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, apperrors.Validation("id", "must be a valid booking id"))
		return
	}

	render := c.service.Ticket
	if kind == KindReceipt {
		render = c.service.Receipt
	}
	doc, err := render(ctx.Request.Context(), session.FromGin(ctx), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `inline; filename="`+doc.Filename+`"`)
	ctx.Data(http.StatusOK, "application/pdf", doc.Content)
}
