package seats

import (
	"strings"
	"time"

	"travelhub/internal/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SeatStatus string

const (
	StatusAvailable SeatStatus = "available"
	StatusHeld      SeatStatus = "held"
	StatusBooked    SeatStatus = "booked"
)

// Seat is a persisted event seat. Synthetic verticals never reach this table.
type Seat struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	EventID    uuid.UUID       `json:"event_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_event_seat"`
	SeatNumber string          `json:"seat_number" gorm:"not null;size:10;uniqueIndex:idx_event_seat"`
	Row        string          `json:"row" gorm:"column:row_label;not null;size:4"`
	Position   int             `json:"position" gorm:"not null"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Status     SeatStatus      `json:"status" gorm:"type:varchar(20);not null;check:status IN ('available','held','booked')"`
	CreatedAt  time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (s *Seat) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = StatusAvailable
	}
	return nil
}

// Unit is one selectable seat, berth or ticket in a layout.
type Unit struct {
	ID        string          `json:"id"`
	Number    string          `json:"number"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"is_available"`
	Status    SeatStatus      `json:"status"`
	Category  string          `json:"category,omitempty"`
	Class     string          `json:"class,omitempty"`
	Type      string          `json:"type,omitempty"`
	Position  string          `json:"position,omitempty"`
}

func (s *Seat) toUnit() Unit {
	return Unit{
		ID:        s.SeatNumber,
		Number:    s.SeatNumber,
		Price:     s.Price,
		Available: s.Status == StatusAvailable,
		Status:    s.Status,
	}
}

type Layout struct {
	Kind   catalog.Kind `json:"kind"`
	ItemID uuid.UUID    `json:"item_id"`
	Units  []Unit       `json:"units"`
}

// Find returns the unit with the given id.
func (l *Layout) Find(id string) (Unit, bool) {
	for _, u := range l.Units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}

type Hold struct {
	ID        string    `json:"hold_id"`
	UserID    uuid.UUID `json:"user_id"`
	EventID   uuid.UUID `json:"event_id"`
	Seats     []string  `json:"seats"`
	ExpiresAt time.Time `json:"expires_at"`
}

// JoinNumbers renders seat identifiers the way bookings store them.
func JoinNumbers(ids []string) string {
	return strings.Join(ids, ",")
}

// SplitNumbers is the inverse of JoinNumbers.
func SplitNumbers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
