package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmitRequest pays for an existing unpaid booking.
type SubmitRequest struct {
	BookingID uuid.UUID       `json:"booking_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Form
}

type ListQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Status Status `form:"status"`
	Method Method `form:"method"`
}
