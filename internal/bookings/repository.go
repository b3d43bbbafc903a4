package bookings

import (
	"context"
	"errors"
	"time"

	"travelhub/internal/payments"
	"travelhub/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// LockOwned loads the caller's booking with a row lock; only valid inside a transaction.
	LockOwned(ctx context.Context, id, userID uuid.UUID) (*Booking, error)
	Lock(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error)

	// Cancel flips a booked row owned by userID and returns the number of rows changed.
	Cancel(ctx context.Context, id, userID uuid.UUID, at time.Time) (int64, error)
	ForceCancel(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	Expire(ctx context.Context, id uuid.UUID) (int64, error)
	CompleteDue(ctx context.Context, now time.Time, limit int) (int64, error)
	ListUnpaid(ctx context.Context, bookedBefore time.Time, limit int) ([]Booking, error)

	CountByStatus(ctx context.Context) (map[TicketStatus]int64, error)
	CountByType(ctx context.Context) (map[BookingType]int64, error)
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

func (r *repository) Create(ctx context.Context, b *Booking) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error; err != nil {
		return apperrors.Persistence("insert booking", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).
		Preload("Payments", orderPayments).
		Preload("Payments.Detail").
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "get booking")
	}
	return &b, nil
}

func (r *repository) LockOwned(ctx context.Context, id, userID uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&b).Error
	if err != nil {
		return nil, notFoundOr(err, "lock booking")
	}
	return &b, nil
}

func (r *repository) Lock(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "lock booking")
	}
	return &b, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	var list []Booking
	err := r.db.WithContext(ctx).
		Preload("Payments", orderPayments).
		Where("user_id = ?", userID).
		Order("booking_date DESC").
		Find(&list).Error
	if err != nil {
		return nil, apperrors.Persistence("list bookings", err)
	}
	return list, nil
}

func orderPayments(db *gorm.DB) *gorm.DB {
	return db.Order("payment_date ASC")
}

func (r *repository) Cancel(ctx context.Context, id, userID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND user_id = ? AND ticket_status = ?", id, userID, StatusBooked).
		Updates(map[string]interface{}{
			"ticket_status": StatusCancelled,
			"cancelled_at":  at,
		})
	if res.Error != nil {
		return 0, apperrors.Persistence("cancel booking", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *repository) ForceCancel(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND ticket_status <> ?", id, StatusCancelled).
		Updates(map[string]interface{}{
			"ticket_status": StatusCancelled,
			"cancelled_at":  at,
		})
	if res.Error != nil {
		return 0, apperrors.Persistence("force cancel booking", res.Error)
	}
	return res.RowsAffected, nil
}

// Expire only touches a booked row that still has no completed payment, so a
// payment committed after ListUnpaid keeps the booking.
func (r *repository) Expire(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND ticket_status = ?", id, StatusBooked).
		Where("NOT EXISTS (?)", r.completedPayment()).
		Update("ticket_status", StatusExpired)
	if res.Error != nil {
		return 0, apperrors.Persistence("expire booking", res.Error)
	}
	return res.RowsAffected, nil
}

// CompleteDue marks at most limit booked rows whose travel date has passed as completed.
func (r *repository) CompleteDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	due := r.db.Model(&Booking{}).Select("id").
		Where("ticket_status = ? AND travel_date IS NOT NULL AND travel_date < ?", StatusBooked, now).
		Order("travel_date ASC").
		Limit(limit)

	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id IN (?)", due).
		Update("ticket_status", StatusCompleted)
	if res.Error != nil {
		return 0, apperrors.Persistence("complete due bookings", res.Error)
	}
	return res.RowsAffected, nil
}

// ListUnpaid returns booked rows created before bookedBefore that have no completed payment.
func (r *repository) ListUnpaid(ctx context.Context, bookedBefore time.Time, limit int) ([]Booking, error) {
	var list []Booking
	err := r.db.WithContext(ctx).
		Where("ticket_status = ? AND booking_date < ?", StatusBooked, bookedBefore).
		Where("NOT EXISTS (?)", r.completedPayment()).
		Order("booking_date ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, apperrors.Persistence("list unpaid bookings", err)
	}
	return list, nil
}

func (r *repository) completedPayment() *gorm.DB {
	return r.db.Model(&payments.Payment{}).Select("1").
		Where("payments.booking_id = bookings.id AND payments.payment_status = ?", payments.StatusCompleted)
}

func (r *repository) CountByStatus(ctx context.Context) (map[TicketStatus]int64, error) {
	var rows []struct {
		TicketStatus TicketStatus
		Count        int64
	}
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Select("ticket_status, COUNT(*) AS count").
		Group("ticket_status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Persistence("count bookings by status", err)
	}

	out := make(map[TicketStatus]int64, len(rows))
	for _, row := range rows {
		out[row.TicketStatus] = row.Count
	}
	return out, nil
}

func (r *repository) CountByType(ctx context.Context) (map[BookingType]int64, error) {
	var rows []struct {
		BookingType BookingType
		Count       int64
	}
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Select("booking_type, COUNT(*) AS count").
		Group("booking_type").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Persistence("count bookings by type", err)
	}

	out := make(map[BookingType]int64, len(rows))
	for _, row := range rows {
		out[row.BookingType] = row.Count
	}
	return out, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("booking")
	}
	return apperrors.Persistence(op, err)
}
