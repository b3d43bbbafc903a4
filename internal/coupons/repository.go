package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"travelhub/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	List(ctx context.Context, q ListQuery, now time.Time) ([]Coupon, int64, error)
	Create(ctx context.Context, c *Coupon) error
	Save(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	Redeem(ctx context.Context, code string) (bool, error)
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

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("coupon")
		}
		return nil, apperrors.Persistence("get coupon", err)
	}
	return &c, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	var c Coupon
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("coupon")
		}
		return nil, apperrors.Persistence("get coupon", err)
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, q ListQuery, now time.Time) ([]Coupon, int64, error) {
	db := r.db.WithContext(ctx).Model(&Coupon{})
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("LOWER(code) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if q.Active != nil {
		if *q.Active {
			db = db.Where("valid_from <= ? AND valid_until >= ? AND current_uses < max_uses", now, now)
		} else {
			db = db.Where("valid_from > ? OR valid_until < ? OR current_uses >= max_uses", now, now)
		}
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Persistence("count coupons", err)
	}

	var list []Coupon
	err := db.Order("created_at DESC").Offset((q.Page - 1) * q.Limit).Limit(q.Limit).Find(&list).Error
	if err != nil {
		return nil, 0, apperrors.Persistence("list coupons", err)
	}
	return list, total, nil
}

func (r *repository) Create(ctx context.Context, c *Coupon) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Validation("code", "a coupon with this code already exists")
		}
		return apperrors.Persistence("create coupon", err)
	}
	return nil
}

func (r *repository) Save(ctx context.Context, c *Coupon) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Validation("code", "a coupon with this code already exists")
		}
		return apperrors.Persistence("save coupon", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Coupon{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Persistence("delete coupon", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("coupon")
	}
	return nil
}

// Redeem consumes one use with a database-side increment-with-check and reports
// whether a row matched. Expiry is evaluated on the database clock.
func (r *repository) Redeem(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Coupon{}).
		Where("code = ? AND current_uses < max_uses AND valid_until >= now()", code).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if res.Error != nil {
		return false, apperrors.Persistence("redeem coupon", res.Error)
	}
	return res.RowsAffected == 1, nil
}
