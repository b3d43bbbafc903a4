package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"travelhub/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

type Repository interface {
	ListFlights(ctx context.Context, q ListQuery) ([]Flight, error)
	ListTrains(ctx context.Context, q ListQuery) ([]TrainRoute, error)
	ListBuses(ctx context.Context, q ListQuery) ([]Bus, error)
	ListMovies(ctx context.Context, q ListQuery) ([]Movie, error)
	ListEvents(ctx context.Context, q ListQuery) ([]Event, error)

	GetFlight(ctx context.Context, id uuid.UUID) (*Flight, error)
	GetTrain(ctx context.Context, id uuid.UUID) (*TrainRoute, error)
	GetBus(ctx context.Context, id uuid.UUID) (*Bus, error)
	GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	LatestEvent(ctx context.Context) (*Event, error)

	CreateEvent(ctx context.Context, event *Event) error
	UpdateEvent(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// filtered applies the shared list filters. timeCol is the column compared against q.From.
func (r *repository) filtered(ctx context.Context, model interface{}, q ListQuery, timeCol string, searchCols ...string) *gorm.DB {
	db := r.db.WithContext(ctx).Model(model)

	if q.Origin != "" {
		db = db.Where("LOWER(origin) = ?", strings.ToLower(strings.TrimSpace(q.Origin)))
	}
	if q.Destination != "" {
		db = db.Where("LOWER(destination) = ?", strings.ToLower(strings.TrimSpace(q.Destination)))
	}
	if q.From != "" {
		if from, err := time.Parse("2006-01-02", q.From); err == nil {
			db = db.Where(timeCol+" >= ?", from)
		}
	}
	if q.Search != "" && len(searchCols) > 0 {
		term := "%" + strings.ToLower(q.Search) + "%"
		clauses := make([]string, 0, len(searchCols))
		args := make([]interface{}, 0, len(searchCols))
		for _, col := range searchCols {
			clauses = append(clauses, "LOWER("+col+") LIKE ?")
			args = append(args, term)
		}
		db = db.Where(strings.Join(clauses, " OR "), args...)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return db.Order(timeCol + " ASC").Limit(limit)
}

func (r *repository) ListFlights(ctx context.Context, q ListQuery) ([]Flight, error) {
	var out []Flight
	if err := r.filtered(ctx, &Flight{}, q, "departure_time", "airline", "flight_number").Find(&out).Error; err != nil {
		return nil, apperrors.Persistence("list flights", err)
	}
	return out, nil
}

func (r *repository) ListTrains(ctx context.Context, q ListQuery) ([]TrainRoute, error) {
	var out []TrainRoute
	if err := r.filtered(ctx, &TrainRoute{}, q, "departure_time", "train_name", "train_number").Find(&out).Error; err != nil {
		return nil, apperrors.Persistence("list trains", err)
	}
	return out, nil
}

func (r *repository) ListBuses(ctx context.Context, q ListQuery) ([]Bus, error) {
	var out []Bus
	if err := r.filtered(ctx, &Bus{}, q, "departure_time", "operator").Find(&out).Error; err != nil {
		return nil, apperrors.Persistence("list buses", err)
	}
	return out, nil
}

func (r *repository) ListMovies(ctx context.Context, q ListQuery) ([]Movie, error) {
	var out []Movie
	// movies and events have no route
	q.Origin, q.Destination = "", ""
	if err := r.filtered(ctx, &Movie{}, q, "show_time", "title", "genre", "theater").Find(&out).Error; err != nil {
		return nil, apperrors.Persistence("list movies", err)
	}
	return out, nil
}

func (r *repository) ListEvents(ctx context.Context, q ListQuery) ([]Event, error) {
	var out []Event
	q.Origin, q.Destination = "", ""
	if err := r.filtered(ctx, &Event{}, q, "date_time", "name", "venue").Find(&out).Error; err != nil {
		return nil, apperrors.Persistence("list events", err)
	}
	return out, nil
}

func first[T any](ctx context.Context, db *gorm.DB, resource string, id uuid.UUID) (*T, error) {
	var out T
	if err := db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(resource)
		}
		return nil, apperrors.Persistence("get "+resource, err)
	}
	return &out, nil
}

func (r *repository) GetFlight(ctx context.Context, id uuid.UUID) (*Flight, error) {
	return first[Flight](ctx, r.db, "flight", id)
}

func (r *repository) GetTrain(ctx context.Context, id uuid.UUID) (*TrainRoute, error) {
	return first[TrainRoute](ctx, r.db, "train", id)
}

func (r *repository) GetBus(ctx context.Context, id uuid.UUID) (*Bus, error) {
	return first[Bus](ctx, r.db, "bus", id)
}

func (r *repository) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	return first[Movie](ctx, r.db, "movie", id)
}

func (r *repository) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return first[Event](ctx, r.db, "event", id)
}

// LatestEvent returns the most recently created event.
func (r *repository) LatestEvent(ctx context.Context) (*Event, error) {
	var e Event
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event")
		}
		return nil, apperrors.Persistence("latest event", err)
	}
	return &e, nil
}

func (r *repository) CreateEvent(ctx context.Context, event *Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return apperrors.Persistence("create event", err)
	}
	return nil
}

func (r *repository) UpdateEvent(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error) {
	res := r.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, apperrors.Persistence("update event", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("event")
	}
	return r.GetEvent(ctx, id)
}

func (r *repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Event{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Persistence("delete event", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("event")
	}
	return nil
}
