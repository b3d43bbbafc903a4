package payments

import (
	"context"
	"errors"

	"travelhub/internal/shared/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	CreateDetail(ctx context.Context, d *PaymentDetail) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)
	HasCompleted(ctx context.Context, bookingID uuid.UUID) (bool, error)
	List(ctx context.Context, q ListQuery) ([]Payment, int64, error)
	MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
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

func (r *repository) Create(ctx context.Context, p *Payment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return apperrors.PaymentFailed("insert payment", err)
	}
	return nil
}

func (r *repository) CreateDetail(ctx context.Context, d *PaymentDetail) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return apperrors.PaymentFailed("insert payment detail", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var p Payment
	if err := r.db.WithContext(ctx).Preload("Detail").First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment")
		}
		return nil, apperrors.Persistence("get payment", err)
	}
	return &p, nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	var list []Payment
	err := r.db.WithContext(ctx).Preload("Detail").
		Where("booking_id = ?", bookingID).
		Order("payment_date ASC").
		Find(&list).Error
	if err != nil {
		return nil, apperrors.Persistence("list booking payments", err)
	}
	return list, nil
}

func (r *repository) HasCompleted(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Payment{}).
		Where("booking_id = ? AND payment_status = ?", bookingID, StatusCompleted).
		Count(&n).Error
	if err != nil {
		return false, apperrors.Persistence("check booking payment", err)
	}
	return n > 0, nil
}

func (r *repository) List(ctx context.Context, q ListQuery) ([]Payment, int64, error) {
	db := r.db.WithContext(ctx).Model(&Payment{})
	if q.Status != "" {
		db = db.Where("payment_status = ?", q.Status)
	}
	if q.Method != "" {
		db = db.Where("payment_method = ?", q.Method)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Persistence("count payments", err)
	}

	var list []Payment
	err := db.Order("payment_date DESC").Offset((q.Page - 1) * q.Limit).Limit(q.Limit).Find(&list).Error
	if err != nil {
		return nil, 0, apperrors.Persistence("list payments", err)
	}
	return list, total, nil
}

// MarkRefunded flips a completed payment to refunded and reports whether a row matched.
func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND payment_status = ?", id, StatusCompleted).
		Update("payment_status", StatusRefunded)
	if res.Error != nil {
		return false, apperrors.Persistence("refund payment", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&Payment{}).
		Where("payment_status = ?", StatusCompleted).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, apperrors.Persistence("sum revenue", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	var rows []struct {
		PaymentStatus Status
		Count         int64
	}
	err := r.db.WithContext(ctx).Model(&Payment{}).
		Select("payment_status, COUNT(*) AS count").
		Group("payment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Persistence("count payments by status", err)
	}

	out := make(map[Status]int64, len(rows))
	for _, row := range rows {
		out[row.PaymentStatus] = row.Count
	}
	return out, nil
}
