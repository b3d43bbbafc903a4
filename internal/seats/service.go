package seats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travelhub/internal/catalog"
	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/constants"
	"travelhub/internal/shared/session"
	"travelhub/pkg/cache"
	"travelhub/pkg/logger"
	"travelhub/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemResolver resolves catalog items; satisfied by catalog.Service.
type ItemResolver interface {
	Lookup(ctx context.Context, kind catalog.Kind, id uuid.UUID) (*catalog.Item, error)
}

type Service interface {
	Layout(ctx context.Context, kind catalog.Kind, itemID uuid.UUID, viewer *session.Session) (*Layout, error)
	// Price re-derives the synthetic units for ids and rejects unknown or unavailable ones.
	Price(ctx context.Context, item *catalog.Item, ids []string) ([]Unit, error)
	// ReserveEventSeats verifies and books event seats inside tx.
	ReserveEventSeats(ctx context.Context, tx *gorm.DB, userID, eventID uuid.UUID, ids []string) ([]Unit, error)
	Restock(ctx context.Context, tx *gorm.DB, eventID uuid.UUID, ids []string) (int64, error)

	Hold(ctx context.Context, s *session.Session, req *HoldRequest) (*Hold, error)
	Release(ctx context.Context, s *session.Session, holdID string) (int, error)
	ReleaseFor(ctx context.Context, userID uuid.UUID, holdID string) (int, error)

	CreateEventSeats(ctx context.Context, tx *gorm.DB, event *catalog.Event) error
}

type service struct {
	repo      Repository
	holds     *HoldStore
	generator *Generator
	items     ItemResolver
	cache     cache.Service
	layoutTTL time.Duration
	log       *logger.Logger
}

func NewService(repo Repository, holds *HoldStore, generator *Generator, items ItemResolver, cacheSvc cache.Service, layoutTTL time.Duration, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		holds:     holds,
		generator: generator,
		items:     items,
		cache:     cacheSvc,
		layoutTTL: layoutTTL,
		log:       log,
	}
}

func (s *service) Layout(ctx context.Context, kind catalog.Kind, itemID uuid.UUID, viewer *session.Session) (*Layout, error) {
	if kind == catalog.KindEvent {
		return s.eventLayout(ctx, itemID, viewer)
	}

	item, err := s.items.Lookup(ctx, kind, itemID)
	if err != nil {
		return nil, err
	}
	return s.syntheticLayout(ctx, item)
}

func (s *service) syntheticLayout(ctx context.Context, item *catalog.Item) (*Layout, error) {
	if s.cache == nil {
		return s.generator.Generate(item)
	}

	var layout Layout
	key := constants.BuildSeatLayoutKey(string(item.Kind), item.ID.String())
	err := s.cache.GetOrSet(ctx, key, s.layoutTTL, func() (interface{}, error) {
		return s.generator.Generate(item)
	}, &layout)
	if err != nil {
		return nil, err
	}
	return &layout, nil
}

func (s *service) eventLayout(ctx context.Context, eventID uuid.UUID, viewer *session.Session) (*Layout, error) {
	if _, err := s.items.Lookup(ctx, catalog.KindEvent, eventID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	numbers := make([]string, 0, len(rows))
	for _, seat := range rows {
		if seat.Status == StatusAvailable {
			numbers = append(numbers, seat.SeatNumber)
		}
	}
	holders, err := s.holds.Holders(ctx, eventID, numbers)
	if err != nil {
		// holds are advisory on the read path
		s.log.WarnContext(ctx, "seat hold lookup failed", "event_id", eventID.String(), "error", err)
		holders = map[string]uuid.UUID{}
	}

	layout := &Layout{Kind: catalog.KindEvent, ItemID: eventID, Units: make([]Unit, 0, len(rows))}
	for i := range rows {
		u := rows[i].toUnit()
		if holder, held := holders[u.ID]; held {
			u.Status = StatusHeld
			u.Available = viewer != nil && viewer.UserID == holder
		}
		layout.Units = append(layout.Units, u)
	}
	return layout, nil
}

func (s *service) Price(ctx context.Context, item *catalog.Item, ids []string) ([]Unit, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, apperrors.Validation("seats", "select at least one seat")
	}

	layout, err := s.syntheticLayout(ctx, item)
	if err != nil {
		return nil, err
	}

	sel := NewSelection(layout)
	for _, id := range ids {
		u, ok := layout.Find(id)
		if !ok {
			return nil, apperrors.Validation("seats", fmt.Sprintf("unknown seat %s", id))
		}
		if !u.Available {
			metrics.SeatConflict()
			return nil, apperrors.SeatUnavailable("price seats", fmt.Errorf("seat %s is not available", id))
		}
		sel.Toggle(id)
	}
	return sel.Units(), nil
}

func (s *service) ReserveEventSeats(ctx context.Context, tx *gorm.DB, userID, eventID uuid.UUID, ids []string) ([]Unit, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, apperrors.Validation("seats", "select at least one seat")
	}

	repo := s.repo.WithTx(tx)
	rows, err := repo.GetByNumbers(ctx, eventID, ids)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(ids) {
		return nil, apperrors.Validation("seats", "one or more seats do not exist for this event")
	}

	holders, err := s.holds.Holders(ctx, eventID, ids)
	if err != nil {
		// the conditional update below still guards against double-sale
		s.log.WarnContext(ctx, "seat hold lookup failed", "event_id", eventID.String(), "error", err)
		holders = map[string]uuid.UUID{}
	}

	byNumber := make(map[string]Seat, len(rows))
	for _, seat := range rows {
		if seat.Status == StatusBooked {
			metrics.SeatConflict()
			return nil, apperrors.SeatUnavailable("reserve seats", fmt.Errorf("seat %s is already booked", seat.SeatNumber))
		}
		if holder, held := holders[seat.SeatNumber]; held && holder != userID {
			metrics.SeatConflict()
			return nil, apperrors.SeatUnavailable("reserve seats", fmt.Errorf("seat %s is held by another customer", seat.SeatNumber))
		}
		byNumber[seat.SeatNumber] = seat
	}

	if err := repo.MarkBooked(ctx, eventID, ids); err != nil {
		if errors.Is(err, apperrors.ErrSeatUnavailable) {
			metrics.SeatConflict()
		}
		return nil, err
	}

	units := make([]Unit, 0, len(ids))
	for _, id := range ids {
		seat := byNumber[id]
		u := seat.toUnit()
		u.Status, u.Available = StatusBooked, false
		units = append(units, u)
	}
	return units, nil
}

func (s *service) Restock(ctx context.Context, tx *gorm.DB, eventID uuid.UUID, ids []string) (int64, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.WithTx(tx).MarkAvailable(ctx, eventID, ids)
}

func (s *service) Hold(ctx context.Context, sess *session.Session, req *HoldRequest) (*Hold, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	ids := dedupe(req.Seats)
	if len(ids) == 0 {
		return nil, apperrors.Validation("seats", "select at least one seat")
	}

	rows, err := s.repo.GetByNumbers(ctx, req.EventID, ids)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(ids) {
		return nil, apperrors.Validation("seats", "one or more seats do not exist for this event")
	}
	for _, seat := range rows {
		if seat.Status == StatusBooked {
			metrics.SeatConflict()
			return nil, apperrors.SeatUnavailable("hold seats", fmt.Errorf("seat %s is already booked", seat.SeatNumber))
		}
	}

	hold, err := s.holds.Hold(ctx, sess.UserID, req.EventID, ids)
	if err != nil {
		if errors.Is(err, apperrors.ErrSeatUnavailable) {
			metrics.SeatConflict()
		}
		return nil, err
	}
	metrics.HoldCreated()
	return hold, nil
}

func (s *service) Release(ctx context.Context, sess *session.Session, holdID string) (int, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return 0, err
	}
	return s.ReleaseFor(ctx, sess.UserID, holdID)
}

func (s *service) ReleaseFor(ctx context.Context, userID uuid.UUID, holdID string) (int, error) {
	n, err := s.holds.Release(ctx, userID, holdID)
	if err != nil {
		return 0, err
	}
	metrics.HoldReleased()
	return n, nil
}

// CreateEventSeats lays out rows A, B, C... each with SeatsPerRow seats at the event's base price.
func (s *service) CreateEventSeats(ctx context.Context, tx *gorm.DB, event *catalog.Event) error {
	seats := make([]Seat, 0, event.Rows*event.SeatsPerRow)
	for r := 0; r < event.Rows; r++ {
		row := string(rune('A' + r))
		for p := 1; p <= event.SeatsPerRow; p++ {
			seats = append(seats, Seat{
				EventID:    event.ID,
				SeatNumber: fmt.Sprintf("%s%d", row, p),
				Row:        row,
				Position:   p,
				Price:      event.BasePrice,
				Status:     StatusAvailable,
			})
		}
	}
	return s.repo.WithTx(tx).CreateBatch(ctx, seats)
}
