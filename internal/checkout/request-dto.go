package checkout

import (
	"travelhub/internal/payments"
	"travelhub/internal/profiles"

	"github.com/google/uuid"
)

// Request books one catalog item. Payment may be omitted to pay later through
// POST /payments; premium memberships must be paid up front.
type Request struct {
	ItemType   string               `json:"item_type" binding:"required"`
	ItemID     uuid.UUID            `json:"item_id"`
	Seats      []string             `json:"seats" binding:"omitempty,max=10,dive,required"`
	HoldID     string               `json:"hold_id,omitempty"`
	CouponCode string               `json:"coupon_code,omitempty"`
	Plan       profiles.PremiumPlan `json:"plan,omitempty"`
	Payment    *payments.Form       `json:"payment,omitempty"`
}
