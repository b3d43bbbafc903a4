package profiles

import (
	"context"
	"errors"
	"time"

	"travelhub/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, id uuid.UUID) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	// ClearExpiredPremium downgrades every lapsed premium profile and returns how many changed.
	ClearExpiredPremium(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Profile) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperrors.Persistence("create profile", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("profile")
		}
		return nil, apperrors.Persistence("get profile", err)
	}
	return &p, nil
}

func (r *repository) Save(ctx context.Context, p *Profile) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return apperrors.Persistence("save profile", err)
	}
	return nil
}

func (r *repository) ClearExpiredPremium(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Profile{}).
		Where("is_premium = ? AND premium_expiry <= ?", true, now).
		Updates(map[string]interface{}{
			"is_premium":     false,
			"premium_type":   nil,
			"premium_expiry": nil,
			"updated_at":     now,
		})
	if res.Error != nil {
		return 0, apperrors.Persistence("expire premium", res.Error)
	}
	return res.RowsAffected, nil
}
