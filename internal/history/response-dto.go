package history

import (
	"travelhub/internal/bookings"
	"travelhub/internal/payments"
)

// Entry is one row of the booking history: the booking, its payment (the first
// one, or null) and whether the customer may still cancel it.
type Entry struct {
	bookings.Booking
	Payment   *payments.Payment `json:"payment"`
	CanCancel bool              `json:"can_cancel"`
}

type View struct {
	Bookings []Entry                          `json:"bookings"`
	ByType   map[bookings.BookingType][]Entry `json:"by_type"`
	Counts   map[bookings.TicketStatus]int    `json:"counts"`
}

func newEntry(b bookings.Booking) Entry {
	e := Entry{Payment: b.Payment(), CanCancel: b.TicketStatus.Cancellable()}
	b.Payments = nil
	e.Booking = b
	return e
}

// build groups bookings, already ordered newest first, by type. Every type has a
// (possibly empty) tab.
func build(list []bookings.Booking) *View {
	v := &View{
		Bookings: make([]Entry, 0, len(list)),
		ByType:   make(map[bookings.BookingType][]Entry, len(bookings.Types)),
		Counts:   make(map[bookings.TicketStatus]int),
	}
	for _, t := range bookings.Types {
		v.ByType[t] = []Entry{}
	}
	for _, b := range list {
		e := newEntry(b)
		v.Bookings = append(v.Bookings, e)
		v.ByType[b.BookingType] = append(v.ByType[b.BookingType], e)
		v.Counts[b.TicketStatus]++
	}
	return v
}

// filter narrows a cached view without touching the store.
func (v *View) filter(q Query) *View {
	if q.Type == "" && q.Status == "" {
		return v
	}
	list := make([]bookings.Booking, 0, len(v.Bookings))
	for _, e := range v.Bookings {
		if q.Type != "" && string(e.BookingType) != q.Type {
			continue
		}
		if q.Status != "" && string(e.TicketStatus) != q.Status {
			continue
		}
		b := e.Booking
		if e.Payment != nil {
			b.Payments = []payments.Payment{*e.Payment}
		}
		list = append(list, b)
	}
	return build(list)
}
