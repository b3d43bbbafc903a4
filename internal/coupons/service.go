package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travelhub/internal/shared/apperrors"
	"travelhub/pkg/logger"
	"travelhub/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errCouponUnusable = errors.New("coupon cannot be used")

type Service interface {
	// Apply resolves code to a discount. Every reason for refusal surfaces as InvalidCoupon.
	Apply(ctx context.Context, code string) (*Discount, error)
	// Redeem consumes one use inside tx.
	Redeem(ctx context.Context, tx *gorm.DB, code string) error

	List(ctx context.Context, q ListQuery) (*CouponList, error)
	Get(ctx context.Context, id uuid.UUID) (*Coupon, error)
	Create(ctx context.Context, req *CouponRequest) (*Coupon, error)
	Update(ctx context.Context, id uuid.UUID, req *CouponRequest) (*Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *logger.Logger) Service {
	return &service{repo: repo, log: log, now: time.Now}
}

func (s *service) Apply(ctx context.Context, code string) (*Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, apperrors.Validation("code", "coupon code is required")
	}

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		reason := "lookup failed"
		if errors.Is(err, apperrors.ErrNotFound) {
			reason = "not found"
		}
		return nil, s.reject(ctx, code, reason)
	}

	now := s.now()
	switch {
	case now.After(c.ValidUntil):
		return nil, s.reject(ctx, code, "expired")
	case c.CurrentUses >= c.MaxUses:
		return nil, s.reject(ctx, code, "exhausted")
	}

	d := c.Discount()
	return &d, nil
}

// reject logs the reason and returns the same error for every failure.
func (s *service) reject(ctx context.Context, code, reason string) error {
	s.log.LogCouponRejected(ctx, code, reason)
	metrics.CouponResult("rejected")
	return apperrors.InvalidCoupon("apply coupon", errCouponUnusable)
}

func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string) error {
	code = NormalizeCode(code)
	ok, err := s.repo.WithTx(tx).Redeem(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return s.reject(ctx, code, "redeem lost race or coupon unusable")
	}
	metrics.CouponResult("redeemed")
	return nil
}

func (s *service) List(ctx context.Context, q ListQuery) (*CouponList, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	list, total, err := s.repo.List(ctx, q, s.now())
	if err != nil {
		return nil, err
	}
	return &CouponList{Coupons: list, TotalCount: total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Create(ctx context.Context, req *CouponRequest) (*Coupon, error) {
	c := &Coupon{}
	if err := apply(c, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req *CouponRequest) (*Coupon, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(c, req); err != nil {
		return nil, err
	}
	if req.MaxUses < c.CurrentUses {
		return nil, apperrors.Validation("max_uses", fmt.Sprintf("cannot be below current uses (%d)", c.CurrentUses))
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// apply validates req and copies it onto c.
func apply(c *Coupon, req *CouponRequest) error {
	code := NormalizeCode(req.Code)
	if code == "" {
		return apperrors.Validation("code", "is required")
	}

	pct, amt := req.DiscountPercentage, req.DiscountAmount
	switch {
	case pct != nil && amt != nil:
		return apperrors.Validation("discount", "set either discount_percentage or discount_amount, not both")
	case pct == nil && amt == nil:
		return apperrors.Validation("discount", "one of discount_percentage or discount_amount is required")
	case pct != nil && (pct.LessThan(decimal.NewFromInt(1)) || pct.GreaterThan(hundred)):
		return apperrors.Validation("discount_percentage", "must be between 1 and 100")
	case amt != nil && !amt.IsPositive():
		return apperrors.Validation("discount_amount", "must be greater than 0")
	}

	if !req.ValidUntil.After(req.ValidFrom) {
		return apperrors.Validation("valid_until", "must be after valid_from")
	}
	if req.MaxUses < 1 {
		return apperrors.Validation("max_uses", "must be at least 1")
	}

	c.Code = code
	c.Description = req.Description
	c.DiscountPercentage = pct
	c.DiscountAmount = amt
	c.ValidFrom = req.ValidFrom.UTC()
	c.ValidUntil = req.ValidUntil.UTC()
	c.MaxUses = req.MaxUses
	return nil
}
