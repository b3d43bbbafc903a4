package coupons

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountAmount     DiscountType = "amount"
)

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID                 uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	Code               string           `json:"code" gorm:"not null;size:32;uniqueIndex"`
	Description        string           `json:"description" gorm:"size:500"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty" gorm:"type:numeric(5,2)"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount,omitempty" gorm:"type:numeric(12,2)"`
	ValidFrom          time.Time        `json:"valid_from" gorm:"not null"`
	ValidUntil         time.Time        `json:"valid_until" gorm:"not null;index"`
	MaxUses            int              `json:"max_uses" gorm:"not null;check:max_uses >= 1"`
	CurrentUses        int              `json:"current_uses" gorm:"not null;check:current_uses >= 0"`
	CreatedAt          time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Code = NormalizeCode(c.Code)
	return nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Applicable reports whether the coupon can still be redeemed at now.
// valid_from is informational; only expiry and the usage cap gate redemption.
func (c *Coupon) Applicable(now time.Time) bool {
	return !now.After(c.ValidUntil) && c.CurrentUses < c.MaxUses
}

func (c *Coupon) Discount() Discount {
	if c.DiscountPercentage != nil {
		return Discount{Code: c.Code, Type: DiscountPercentage, Value: *c.DiscountPercentage}
	}
	var v decimal.Decimal
	if c.DiscountAmount != nil {
		v = *c.DiscountAmount
	}
	return Discount{Code: c.Code, Type: DiscountAmount, Value: v}
}

// Discount is what a successful Apply hands back to the caller.
type Discount struct {
	Code  string          `json:"code"`
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// ApplyTo returns the payable amount after the discount, rounded to cents and never negative.
func (d Discount) ApplyTo(total decimal.Decimal) decimal.Decimal {
	var out decimal.Decimal
	switch d.Type {
	case DiscountPercentage:
		out = total.Mul(hundred.Sub(d.Value)).Div(hundred)
	default:
		out = total.Sub(d.Value)
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out.Round(2)
}
