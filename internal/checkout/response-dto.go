package checkout

import (
	"travelhub/internal/bookings"
	"travelhub/internal/coupons"
	"travelhub/internal/payments"

	"github.com/shopspring/decimal"
)

type Result struct {
	Booking  *bookings.Booking `json:"booking"`
	Payment  *payments.Payment `json:"payment,omitempty"`
	Discount *coupons.Discount `json:"discount,omitempty"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Total    decimal.Decimal   `json:"total"`
	Replayed bool              `json:"replayed"`
}
