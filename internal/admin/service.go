package admin

import (
	"context"
	"errors"
	"time"

	"travelhub/internal/bookings"
	"travelhub/internal/notifications"
	"travelhub/internal/payments"
	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/constants"
	"travelhub/internal/shared/session"
	"travelhub/pkg/cache"
	"travelhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentLedger interface {
	Refund(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID) (*payments.Payment, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	CountByStatus(ctx context.Context) (map[payments.Status]int64, error)
}

type BookingStore interface {
	ForceCancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*bookings.Booking, error)
	CountByStatus(ctx context.Context) (map[bookings.TicketStatus]int64, error)
	CountByType(ctx context.Context) (map[bookings.BookingType]int64, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type Service interface {
	// Refund marks a completed payment refunded and cancels its booking in one
	// transaction. Seats stay sold and coupon usage is not reversed.
	Refund(ctx context.Context, s *session.Session, paymentID uuid.UUID) (*RefundResult, error)
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	db        *gorm.DB
	payments  PaymentLedger
	bookings  BookingStore
	locker    Locker
	cache     cache.Service
	publisher notifications.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewService(db *gorm.DB, ledger PaymentLedger, store BookingStore, locker Locker, cacheSvc cache.Service, publisher notifications.Publisher, log *logger.Logger) Service {
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	return &service{
		db:        db,
		payments:  ledger,
		bookings:  store,
		locker:    locker,
		cache:     cacheSvc,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (s *service) Refund(ctx context.Context, sess *session.Session, paymentID uuid.UUID) (*RefundResult, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, constants.BuildRefundLockKey(paymentID.String()))
		if err != nil {
			if errors.Is(err, errLockBusy) {
				return nil, apperrors.Validation("payment", "a refund for this payment is already in progress")
			}
			return nil, err
		}
		defer release()
	}

	result := &RefundResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.payments.Refund(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		b, err := s.bookings.ForceCancel(ctx, tx, p.BookingID)
		if err != nil {
			return err
		}
		result.Payment, result.Booking = p, b
		return nil
	})
	if err != nil {
		return nil, err
	}

	p, b := result.Payment, result.Booking
	s.log.LogRefund(ctx, p.ID.String(), b.ID.String(), sess.UserID.String())
	s.bookings.Invalidate(ctx, b.UserID)
	s.dropStats(ctx)

	evt := notifications.NewBookingEvent(notifications.EventPaymentRefunded, b.ID, b.UserID)
	evt.BookingType = string(b.BookingType)
	evt.SeatNumbers = b.Seats()
	evt.TravelDate = b.TravelDate
	evt.Amount = p.Amount
	evt.PaymentID = &p.ID
	evt.TransactionID = p.TransactionID
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.WarnContext(ctx, "publish refund event failed", "payment_id", p.ID.String(), "error", err)
	}
	return result, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	if s.cache == nil {
		return s.collect(ctx)
	}
	var st Stats
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_ADMIN_STATS, constants.TTL_ADMIN_STATS, func() (interface{}, error) {
		return s.collect(ctx)
	}, &st)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *service) collect(ctx context.Context) (*Stats, error) {
	byStatus, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := s.bookings.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	paymentsByStatus, err := s.payments.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.payments.Revenue(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		BookingsByStatus: byStatus,
		BookingsByType:   byType,
		PaymentsByStatus: paymentsByStatus,
		Revenue:          revenue,
		GeneratedAt:      s.now().UTC(),
	}
	for _, n := range byStatus {
		st.TotalBookings += n
	}
	return st, nil
}

func (s *service) dropStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, constants.CACHE_KEY_ADMIN_STATS); err != nil {
		s.log.WarnContext(ctx, "admin stats invalidation failed", "error", err)
	}
}
