package admin

import (
	"time"

	"travelhub/internal/bookings"
	"travelhub/internal/payments"

	"github.com/shopspring/decimal"
)

type RefundResult struct {
	Payment *payments.Payment `json:"payment"`
	Booking *bookings.Booking `json:"booking"`
}

// Stats is the back-office dashboard summary.
type Stats struct {
	BookingsByStatus map[bookings.TicketStatus]int64 `json:"bookings_by_status"`
	BookingsByType   map[bookings.BookingType]int64  `json:"bookings_by_type"`
	PaymentsByStatus map[payments.Status]int64       `json:"payments_by_status"`
	TotalBookings    int64                           `json:"total_bookings"`
	Revenue          decimal.Decimal                 `json:"revenue"`
	GeneratedAt      time.Time                       `json:"generated_at"`
}
