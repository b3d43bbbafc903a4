package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListQuery struct {
	Origin      string `form:"origin"`
	Destination string `form:"destination"`
	From        string `form:"from"`
	Search      string `form:"search"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type CreateEventRequest struct {
	Name        string          `json:"name" binding:"required,min=3,max=255"`
	Description string          `json:"description" binding:"max=2000"`
	Venue       string          `json:"venue" binding:"required,min=3,max=255"`
	DateTime    time.Time       `json:"date_time" binding:"required"`
	ImageURL    string          `json:"image_url" binding:"omitempty,url"`
	Rows        int             `json:"rows" binding:"required,min=1,max=26"`
	SeatsPerRow int             `json:"seats_per_row" binding:"required,min=1,max=50"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

type UpdateEventRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=3,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Venue       *string    `json:"venue" binding:"omitempty,min=3,max=255"`
	DateTime    *time.Time `json:"date_time"`
	ImageURL    *string    `json:"image_url" binding:"omitempty,url"`
}
