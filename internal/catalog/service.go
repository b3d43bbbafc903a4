package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/constants"
	"travelhub/pkg/cache"
	"travelhub/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeatMaterializer creates the persisted seat rows of a new event inside the caller's transaction.
type SeatMaterializer interface {
	CreateEventSeats(ctx context.Context, tx *gorm.DB, event *Event) error
}

type Service interface {
	List(ctx context.Context, kind Kind, q ListQuery) (interface{}, error)
	Get(ctx context.Context, kind Kind, id uuid.UUID) (interface{}, error)
	Lookup(ctx context.Context, kind Kind, id uuid.UUID) (*Item, error)
	CurrentEvent(ctx context.Context) (*Event, error)

	CreateEvent(ctx context.Context, adminID uuid.UUID, req *CreateEventRequest) (*Event, error)
	UpdateEvent(ctx context.Context, adminID, id uuid.UUID, req *UpdateEventRequest) (*Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db    *gorm.DB
	repo  Repository
	seats SeatMaterializer
	cache cache.Service
	log   *logger.Logger
}

func NewService(db *gorm.DB, repo Repository, seats SeatMaterializer, cacheSvc cache.Service, log *logger.Logger) Service {
	return &service{db: db, repo: repo, seats: seats, cache: cacheSvc, log: log}
}

func listKey(kind Kind, q ListQuery) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d",
		strings.ToLower(q.Origin), strings.ToLower(q.Destination), q.From, strings.ToLower(q.Search), q.Limit)
	return constants.BuildCatalogListKey(string(kind), fmt.Sprintf("%x", h.Sum64()))
}

func cachedList[T any](ctx context.Context, s *service, kind Kind, q ListQuery, fetch func(context.Context, ListQuery) ([]T, error)) ([]T, error) {
	if s.cache == nil {
		return fetch(ctx, q)
	}
	var out []T
	err := s.cache.GetOrSet(ctx, listKey(kind, q), constants.TTL_CATALOG_LIST, func() (interface{}, error) {
		return fetch(ctx, q)
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (s *service) List(ctx context.Context, kind Kind, q ListQuery) (interface{}, error) {
	switch kind {
	case KindFlight:
		return cachedList(ctx, s, kind, q, s.repo.ListFlights)
	case KindTrain:
		return cachedList(ctx, s, kind, q, s.repo.ListTrains)
	case KindBus:
		return cachedList(ctx, s, kind, q, s.repo.ListBuses)
	case KindMovie:
		return cachedList(ctx, s, kind, q, s.repo.ListMovies)
	case KindEvent:
		return cachedList(ctx, s, kind, q, s.repo.ListEvents)
	default:
		return nil, apperrors.Validation("kind", "unknown catalog vertical")
	}
}

func (s *service) Get(ctx context.Context, kind Kind, id uuid.UUID) (interface{}, error) {
	switch kind {
	case KindFlight:
		return s.repo.GetFlight(ctx, id)
	case KindTrain:
		return s.repo.GetTrain(ctx, id)
	case KindBus:
		return s.repo.GetBus(ctx, id)
	case KindMovie:
		return s.repo.GetMovie(ctx, id)
	case KindEvent:
		return s.repo.GetEvent(ctx, id)
	default:
		return nil, apperrors.Validation("kind", "unknown catalog vertical")
	}
}

// Lookup resolves an item to the fields booking creation needs. Unknown ids fail with NotFound.
func (s *service) Lookup(ctx context.Context, kind Kind, id uuid.UUID) (*Item, error) {
	item := &Item{Kind: kind, ID: id}
	switch kind {
	case KindFlight:
		f, err := s.repo.GetFlight(ctx, id)
		if err != nil {
			return nil, err
		}
		item.Title = f.Airline + " " + f.FlightNumber
		item.ServiceDate = timePtr(f.DepartureTime)
	case KindTrain:
		t, err := s.repo.GetTrain(ctx, id)
		if err != nil {
			return nil, err
		}
		item.Title = t.TrainName + " " + t.TrainNumber
		item.ServiceDate = timePtr(t.DepartureTime)
	case KindBus:
		b, err := s.repo.GetBus(ctx, id)
		if err != nil {
			return nil, err
		}
		item.Title = b.Operator
		item.ServiceDate = timePtr(b.DepartureTime)
		item.BusType = b.BusType
	case KindMovie:
		m, err := s.repo.GetMovie(ctx, id)
		if err != nil {
			return nil, err
		}
		item.Title = m.Title + " @ " + m.Theater
		item.ServiceDate = timePtr(m.ShowTime)
	case KindEvent:
		e, err := s.repo.GetEvent(ctx, id)
		if err != nil {
			return nil, err
		}
		item.Title = e.Name
		item.ServiceDate = timePtr(e.DateTime)
	default:
		return nil, apperrors.Validation("kind", "unknown catalog vertical")
	}
	return item, nil
}

func timePtr(t time.Time) *time.Time { return &t }

// CurrentEvent is the most recently created event.
func (s *service) CurrentEvent(ctx context.Context) (*Event, error) {
	if s.cache == nil {
		return s.repo.LatestEvent(ctx)
	}
	var e Event
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_CURRENT_EVENT, constants.TTL_CURRENT_EVENT, func() (interface{}, error) {
		return s.repo.LatestEvent(ctx)
	}, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *service) CreateEvent(ctx context.Context, adminID uuid.UUID, req *CreateEventRequest) (*Event, error) {
	if !req.BasePrice.IsPositive() {
		return nil, apperrors.Validation("base_price", "must be greater than 0")
	}

	event := &Event{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Venue:       strings.TrimSpace(req.Venue),
		DateTime:    req.DateTime.UTC(),
		ImageURL:    req.ImageURL,
		Rows:        req.Rows,
		SeatsPerRow: req.SeatsPerRow,
		BasePrice:   req.BasePrice.Round(2),
		CreatedBy:   adminID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateEvent(ctx, event); err != nil {
			return err
		}
		return s.seats.CreateEventSeats(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.InfoWithContext(ctx, "event created", map[string]interface{}{
		"event_id": event.ID.String(),
		"seats":    event.Rows * event.SeatsPerRow,
		"admin_id": adminID.String(),
	})
	return event, nil
}

// UpdateEvent edits descriptive fields only. The seat layout is fixed once seats exist.
func (s *service) UpdateEvent(ctx context.Context, adminID, id uuid.UUID, req *UpdateEventRequest) (*Event, error) {
	updates := map[string]interface{}{"updated_by": adminID}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Venue != nil {
		updates["venue"] = strings.TrimSpace(*req.Venue)
	}
	if req.DateTime != nil {
		updates["date_time"] = req.DateTime.UTC()
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}

	event, err := s.repo.UpdateEvent(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return event, nil
}

func (s *service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, constants.CACHE_KEY_CATALOG_LIST+string(KindEvent)+":*"); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate event list cache", "error", err)
	}
	if err := s.cache.Delete(ctx, constants.CACHE_KEY_CURRENT_EVENT); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate current event cache", "error", err)
	}
}
