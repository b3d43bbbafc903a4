package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Kind names a catalog vertical.
type Kind string

const (
	KindFlight Kind = "flight"
	KindTrain  Kind = "train"
	KindBus    Kind = "bus"
	KindMovie  Kind = "movie"
	KindEvent  Kind = "event"
)

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindFlight, KindTrain, KindBus, KindMovie, KindEvent:
		return k, true
	}
	switch s {
	case "flights":
		return KindFlight, true
	case "trains", "train_routes":
		return KindTrain, true
	case "buses":
		return KindBus, true
	case "movies":
		return KindMovie, true
	case "events":
		return KindEvent, true
	}
	return "", false
}

type BusType string

const (
	BusSeater  BusType = "seater"
	BusSleeper BusType = "sleeper"
)

type Flight struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Airline       string          `json:"airline" gorm:"not null;size:100"`
	FlightNumber  string          `json:"flight_number" gorm:"not null;size:20"`
	Origin        string          `json:"origin" gorm:"not null;size:100;index"`
	Destination   string          `json:"destination" gorm:"not null;size:100;index"`
	DepartureTime time.Time       `json:"departure_time" gorm:"not null;index"`
	ArrivalTime   time.Time       `json:"arrival_time" gorm:"not null"`
	BasePrice     decimal.Decimal `json:"base_price" gorm:"type:numeric(12,2);not null"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

type TrainRoute struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TrainName     string    `json:"train_name" gorm:"not null;size:100"`
	TrainNumber   string    `json:"train_number" gorm:"not null;size:20"`
	Origin        string    `json:"origin" gorm:"not null;size:100;index"`
	Destination   string    `json:"destination" gorm:"not null;size:100;index"`
	DepartureTime time.Time `json:"departure_time" gorm:"not null;index"`
	ArrivalTime   time.Time `json:"arrival_time" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type Bus struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Operator      string    `json:"operator" gorm:"not null;size:100"`
	BusType       BusType   `json:"bus_type" gorm:"type:varchar(10);not null;check:bus_type IN ('seater','sleeper')"`
	Origin        string    `json:"origin" gorm:"not null;size:100;index"`
	Destination   string    `json:"destination" gorm:"not null;size:100;index"`
	DepartureTime time.Time `json:"departure_time" gorm:"not null;index"`
	ArrivalTime   time.Time `json:"arrival_time" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type Movie struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title           string    `json:"title" gorm:"not null;size:255"`
	Genre           string    `json:"genre" gorm:"size:100"`
	Language        string    `json:"language" gorm:"size:50"`
	DurationMinutes int       `json:"duration_minutes" gorm:"check:duration_minutes >= 0"`
	Rating          string    `json:"rating" gorm:"size:10"`
	Theater         string    `json:"theater" gorm:"not null;size:255"`
	ShowTime        time.Time `json:"show_time" gorm:"not null;index"`
	PosterURL       string    `json:"poster_url" gorm:"size:500"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Event is the only vertical whose seats are persisted.
type Event struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string          `json:"name" gorm:"not null;size:255"`
	Description string          `json:"description" gorm:"type:text"`
	Venue       string          `json:"venue" gorm:"not null;size:255"`
	DateTime    time.Time       `json:"date_time" gorm:"not null;index"`
	ImageURL    string          `json:"image_url" gorm:"size:500"`
	Rows        int             `json:"rows" gorm:"not null;check:rows > 0"`
	SeatsPerRow int             `json:"seats_per_row" gorm:"not null;check:seats_per_row > 0"`
	BasePrice   decimal.Decimal `json:"base_price" gorm:"type:numeric(12,2);not null"`
	CreatedBy   uuid.UUID       `json:"created_by" gorm:"type:uuid;not null"`
	UpdatedBy   *uuid.UUID      `json:"updated_by,omitempty" gorm:"type:uuid"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (f *Flight) BeforeCreate(tx *gorm.DB) error     { f.ID = ensureID(f.ID); return nil }

func (t *TrainRoute) BeforeCreate(tx *gorm.DB) error { t.ID = ensureID(t.ID); return nil }

func (b *Bus) BeforeCreate(tx *gorm.DB) error        { b.ID = ensureID(b.ID); return nil }

func (m *Movie) BeforeCreate(tx *gorm.DB) error      { m.ID = ensureID(m.ID); return nil }

func (e *Event) BeforeCreate(tx *gorm.DB) error      { e.ID = ensureID(e.ID); return nil }

func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// Item is the vertical-neutral view of a purchasable catalog row.
type Item struct {
	Kind        Kind       `json:"kind"`
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	ServiceDate *time.Time `json:"service_date,omitempty"`
	BusType     BusType    `json:"bus_type,omitempty"`
}
