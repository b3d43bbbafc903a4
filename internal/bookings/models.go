package bookings

import (
	"time"

	"travelhub/internal/payments"
	"travelhub/internal/seats"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingType string

const (
	TypeFlight         BookingType = "flight"
	TypeTrain          BookingType = "train"
	TypeEvent          BookingType = "event"
	TypeMovie          BookingType = "movie"
	TypePremiumService BookingType = "premium_service"
)

// Types lists every booking type in display order.
var Types = []BookingType{TypeFlight, TypeTrain, TypeEvent, TypeMovie, TypePremiumService}

func (t BookingType) Valid() bool {
	switch t {
	case TypeFlight, TypeTrain, TypeEvent, TypeMovie, TypePremiumService:
		return true
	}
	return false
}

// SeatBased reports whether the type requires a seat selection.
func (t BookingType) SeatBased() bool {
	return t != TypePremiumService
}

type TicketStatus string

const (
	StatusBooked    TicketStatus = "booked"
	StatusCancelled TicketStatus = "cancelled"
	StatusCompleted TicketStatus = "completed"
	StatusExpired   TicketStatus = "expired"
)

// Cancellable reports whether the customer may still cancel.
func (s TicketStatus) Cancellable() bool {
	return s == StatusBooked
}

// Booking is the single record for every vertical; BookingType is the discriminant.
type Booking struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index:idx_bookings_user_date,priority:1"`
	BookingType  BookingType     `json:"booking_type" gorm:"type:varchar(20);not null;index"`
	ItemID       uuid.UUID       `json:"item_id" gorm:"type:uuid;not null;index"`
	SeatNumber   *string         `json:"seat_number" gorm:"type:text"`
	BookingDate  time.Time       `json:"booking_date" gorm:"not null;index:idx_bookings_user_date,priority:2,sort:desc"`
	TravelDate   *time.Time      `json:"travel_date"`
	TicketStatus TicketStatus    `json:"ticket_status" gorm:"type:varchar(20);not null;index"`
	Subtotal     decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	TotalAmount  decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	CouponCode   *string         `json:"coupon_code,omitempty" gorm:"size:32"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	Payments []payments.Payment `json:"payments,omitempty" gorm:"foreignKey:BookingID"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Seats splits the stored seat list.
func (b *Booking) Seats() []string {
	if b.SeatNumber == nil {
		return nil
	}
	return seats.SplitNumbers(*b.SeatNumber)
}

// Payment returns the first payment, or nil. The schema allows many; one is expected.
func (b *Booking) Payment() *payments.Payment {
	if len(b.Payments) == 0 {
		return nil
	}
	return &b.Payments[0]
}

// CreateInput is what checkout hands over once prices and discounts are settled.
type CreateInput struct {
	Type        BookingType
	ItemID      uuid.UUID
	SeatNumbers []string
	TravelDate  *time.Time
	Subtotal    decimal.Decimal
	Total       decimal.Decimal
	CouponCode  *string
}
