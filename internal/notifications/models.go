package notifications

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingExpired   EventType = "booking.expired"
	EventPaymentCompleted EventType = "payment.completed"
	EventPaymentRefunded  EventType = "payment.refunded"
)

// BookingEvent is the message published on the booking topic after a state change commits.
type BookingEvent struct {
	ID             uuid.UUID       `json:"id"`
	Type           EventType       `json:"type"`
	BookingID      uuid.UUID       `json:"booking_id"`
	UserID         uuid.UUID       `json:"user_id"`
	RecipientEmail string          `json:"recipient_email,omitempty"`
	BookingType    string          `json:"booking_type"`
	ItemTitle      string          `json:"item_title,omitempty"`
	SeatNumbers    []string        `json:"seat_numbers,omitempty"`
	TravelDate     *time.Time      `json:"travel_date,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentID      *uuid.UUID      `json:"payment_id,omitempty"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// NewBookingEvent stamps an id and time on a new event.
func NewBookingEvent(t EventType, bookingID, userID uuid.UUID) *BookingEvent {
	return &BookingEvent{
		ID:         uuid.New(),
		Type:       t,
		BookingID:  bookingID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

// PartitionKey keeps every event of one booking on one partition, in order.
func (e *BookingEvent) PartitionKey() string {
	return e.BookingID.String()
}

func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeBookingEvent(data []byte) (*BookingEvent, error) {
	var e BookingEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher delivers booking events. Implementations never block a committed
// booking on delivery; callers log and continue on error.
type Publisher interface {
	Publish(ctx context.Context, event *BookingEvent) error
	Close() error
}

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *BookingEvent) error { return nil }
func (NoopPublisher) Close() error                                 { return nil }
