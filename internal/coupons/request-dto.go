package coupons

import (
	"time"

	"github.com/shopspring/decimal"
)

type ApplyRequest struct {
	Code  string           `json:"code"`
	Total *decimal.Decimal `json:"total,omitempty"`
}

type CouponRequest struct {
	Code               string           `json:"code" binding:"required,min=3,max=32"`
	Description        string           `json:"description" binding:"max=500"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount"`
	ValidFrom          time.Time        `json:"valid_from" binding:"required"`
	ValidUntil         time.Time        `json:"valid_until" binding:"required"`
	MaxUses            int              `json:"max_uses" binding:"required,min=1"`
}

type ListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search"`
	Active *bool  `form:"active"`
}
