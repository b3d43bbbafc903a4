package seats

import (
	"context"
	"fmt"

	"travelhub/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateBatch(ctx context.Context, seats []Seat) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Seat, error)
	GetByNumbers(ctx context.Context, eventID uuid.UUID, numbers []string) ([]Seat, error)
	MarkBooked(ctx context.Context, eventID uuid.UUID, numbers []string) error
	MarkAvailable(ctx context.Context, eventID uuid.UUID, numbers []string) (int64, error)
	CountByStatus(ctx context.Context) (map[SeatStatus]int64, error)
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

func (r *repository) CreateBatch(ctx context.Context, seats []Seat) error {
	if len(seats) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(seats, 200).Error; err != nil {
		return apperrors.Persistence("create seats", err)
	}
	return nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("row_label ASC, position ASC").
		Find(&seats).Error
	if err != nil {
		return nil, apperrors.Persistence("list seats", err)
	}
	return seats, nil
}

func (r *repository) GetByNumbers(ctx context.Context, eventID uuid.UUID, numbers []string) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND seat_number IN ?", eventID, numbers).
		Find(&seats).Error
	if err != nil {
		return nil, apperrors.Persistence("get seats", err)
	}
	return seats, nil
}

// MarkBooked flips every listed seat to booked in a single conditional update.
// If any seat was already booked the affected row count falls short and the
// whole call fails with SeatUnavailable, leaving the caller's transaction to roll back.
func (r *repository) MarkBooked(ctx context.Context, eventID uuid.UUID, numbers []string) error {
	res := r.db.WithContext(ctx).Model(&Seat{}).
		Where("event_id = ? AND seat_number IN ? AND status <> ?", eventID, numbers, StatusBooked).
		Update("status", StatusBooked)
	if res.Error != nil {
		return apperrors.Persistence("mark seats booked", res.Error)
	}
	if res.RowsAffected != int64(len(numbers)) {
		return apperrors.SeatUnavailable("mark seats booked",
			fmt.Errorf("%d of %d seats could be booked", res.RowsAffected, len(numbers)))
	}
	return nil
}

func (r *repository) MarkAvailable(ctx context.Context, eventID uuid.UUID, numbers []string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Seat{}).
		Where("event_id = ? AND seat_number IN ? AND status = ?", eventID, numbers, StatusBooked).
		Update("status", StatusAvailable)
	if res.Error != nil {
		return 0, apperrors.Persistence("release seats", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[SeatStatus]int64, error) {
	var rows []struct {
		Status SeatStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&Seat{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Persistence("count seats", err)
	}
	out := make(map[SeatStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
