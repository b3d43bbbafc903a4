package coupons

import "github.com/shopspring/decimal"

type ApplyResponse struct {
	Discount
	Total      *decimal.Decimal `json:"total,omitempty"`
	FinalTotal *decimal.Decimal `json:"final_total,omitempty"`
}

type CouponList struct {
	Coupons    []Coupon `json:"coupons"`
	TotalCount int64    `json:"total_count"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
}
