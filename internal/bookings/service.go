package bookings

import (
	"context"
	"time"

	"travelhub/internal/notifications"
	"travelhub/internal/payments"
	"travelhub/internal/seats"
	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/config"
	"travelhub/internal/shared/constants"
	"travelhub/internal/shared/session"
	"travelhub/pkg/cache"
	"travelhub/pkg/logger"
	"travelhub/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeatRestocker returns event seats to sale; satisfied by seats.Service.
type SeatRestocker interface {
	Restock(ctx context.Context, tx *gorm.DB, eventID uuid.UUID, ids []string) (int64, error)
}

type Service interface {
	// Create inserts a booked row inside tx. Prices and discounts must already be settled.
	Create(ctx context.Context, tx *gorm.DB, s *session.Session, in CreateInput) (*Booking, error)
	// Cancel is idempotent: a booking that is already cancelled is returned unchanged.
	// A booking owned by another user is reported as NotFound, the same as a missing id.
	Cancel(ctx context.Context, s *session.Session, id uuid.UUID) (*Booking, error)
	Get(ctx context.Context, s *session.Session, id uuid.UUID) (*Booking, error)
	GetAny(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error)

	// ForceCancel cancels regardless of owner and current state; used by admin refunds inside tx.
	ForceCancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Booking, error)
	CompleteDue(ctx context.Context) (int64, error)
	ExpireUnpaid(ctx context.Context) (int, error)

	PayableBooking(ctx context.Context, tx *gorm.DB, userID, bookingID uuid.UUID) (*payments.BookingRef, error)
	CountByStatus(ctx context.Context) (map[TicketStatus]int64, error)
	CountByType(ctx context.Context) (map[BookingType]int64, error)

	// Invalidate drops the cached history of userID.
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type service struct {
	db        *gorm.DB
	repo      Repository
	seats     SeatRestocker
	cache     cache.Service
	publisher notifications.Publisher
	jobs      config.JobsConfig
	log       *logger.Logger
	now       func() time.Time
}

func NewService(db *gorm.DB, repo Repository, restocker SeatRestocker, cacheSvc cache.Service, publisher notifications.Publisher, jobs config.JobsConfig, log *logger.Logger) Service {
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	return &service{
		db:        db,
		repo:      repo,
		seats:     restocker,
		cache:     cacheSvc,
		publisher: publisher,
		jobs:      jobs,
		log:       log,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, tx *gorm.DB, sess *session.Session, in CreateInput) (*Booking, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, apperrors.Validation("booking_type", "unknown booking type")
	}
	if in.Type.SeatBased() && len(in.SeatNumbers) == 0 {
		return nil, apperrors.Validation("seats", "select at least one seat")
	}
	if in.Total.IsNegative() || in.Subtotal.IsNegative() {
		return nil, apperrors.Validation("total_amount", "must not be negative")
	}

	var seatNumber *string
	if len(in.SeatNumbers) > 0 {
		joined := seats.JoinNumbers(in.SeatNumbers)
		seatNumber = &joined
	}

	b := &Booking{
		UserID:       sess.UserID,
		BookingType:  in.Type,
		ItemID:       in.ItemID,
		SeatNumber:   seatNumber,
		BookingDate:  s.now().UTC(),
		TravelDate:   in.TravelDate,
		TicketStatus: StatusBooked,
		Subtotal:     in.Subtotal.Round(2),
		TotalAmount:  in.Total.Round(2),
		CouponCode:   in.CouponCode,
	}
	if err := s.repo.WithTx(tx).Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Cancel(ctx context.Context, sess *session.Session, id uuid.UUID) (*Booking, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	var (
		booking *Booking
		changed bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		b, err := repo.LockOwned(ctx, id, sess.UserID)
		if err != nil {
			return err
		}
		booking = b

		switch b.TicketStatus {
		case StatusCancelled:
			return nil
		case StatusBooked:
		default:
			return apperrors.Validation("ticket_status", "only booked tickets can be cancelled")
		}

		at := s.now().UTC()
		n, err := repo.Cancel(ctx, id, sess.UserID, at)
		if err != nil {
			return err
		}
		if n == 0 {
			// a concurrent writer moved the row first; nothing left to do
			return nil
		}
		changed = true
		b.TicketStatus, b.CancelledAt = StatusCancelled, &at

		if b.BookingType == TypeEvent && s.seats != nil {
			if _, err := s.seats.Restock(ctx, tx, b.ItemID, b.Seats()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogBookingCancelled(ctx, booking.ID.String(), sess.UserID.String(), changed)
	if changed {
		metrics.BookingTransition(string(booking.BookingType), string(StatusCancelled))
		s.Invalidate(ctx, sess.UserID)

		evt := s.event(notifications.EventBookingCancelled, booking)
		evt.RecipientEmail = sess.Email
		s.publish(ctx, evt)
	}
	return booking, nil
}

func (s *service) Get(ctx context.Context, sess *session.Session, id uuid.UUID) (*Booking, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != sess.UserID {
		return nil, apperrors.NotFound("booking")
	}
	return b, nil
}

func (s *service) GetAny(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ForceCancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Booking, error) {
	repo := s.repo.WithTx(tx)
	b, err := repo.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.TicketStatus == StatusCancelled {
		return b, nil
	}

	at := s.now().UTC()
	if _, err := repo.ForceCancel(ctx, id, at); err != nil {
		return nil, err
	}
	b.TicketStatus, b.CancelledAt = StatusCancelled, &at
	metrics.BookingTransition(string(b.BookingType), string(StatusCancelled))
	return b, nil
}

func (s *service) CompleteDue(ctx context.Context) (int64, error) {
	limit := s.jobs.CompleteDueBatchCap
	if limit <= 0 {
		limit = 500
	}
	n, err := s.repo.CompleteDue(ctx, s.now().UTC(), limit)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.InfoContext(ctx, "bookings completed", "count", n)
	}
	return n, nil
}

// ExpireUnpaid expires booked rows that never received a completed payment within
// the configured window, returning event seats to sale.
func (s *service) ExpireUnpaid(ctx context.Context) (int, error) {
	ttl := s.jobs.UnpaidBookingTTL
	if ttl <= 0 {
		return 0, nil
	}
	limit := s.jobs.CompleteDueBatchCap
	if limit <= 0 {
		limit = 500
	}

	candidates, err := s.repo.ListUnpaid(ctx, s.now().UTC().Add(-ttl), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range candidates {
		b := &candidates[i]
		var changed bool
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			n, err := s.repo.WithTx(tx).Expire(ctx, b.ID)
			if err != nil || n == 0 {
				return err
			}
			changed = true
			if b.BookingType == TypeEvent && s.seats != nil {
				_, err = s.seats.Restock(ctx, tx, b.ItemID, b.Seats())
			}
			return err
		})
		if err != nil {
			s.log.ErrorWithContext(ctx, "expire unpaid booking failed", err, map[string]interface{}{"booking_id": b.ID.String()})
			continue
		}
		if !changed {
			continue
		}

		expired++
		b.TicketStatus = StatusExpired
		metrics.BookingTransition(string(b.BookingType), string(StatusExpired))
		s.Invalidate(ctx, b.UserID)
		s.publish(ctx, s.event(notifications.EventBookingExpired, b))
	}
	return expired, nil
}

func (s *service) PayableBooking(ctx context.Context, tx *gorm.DB, userID, bookingID uuid.UUID) (*payments.BookingRef, error) {
	b, err := s.repo.WithTx(tx).LockOwned(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	return &payments.BookingRef{
		ID:           b.ID,
		UserID:       b.UserID,
		TotalAmount:  b.TotalAmount,
		TicketStatus: string(b.TicketStatus),
	}, nil
}

func (s *service) CountByStatus(ctx context.Context) (map[TicketStatus]int64, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *service) CountByType(ctx context.Context) (map[BookingType]int64, error) {
	return s.repo.CountByType(ctx)
}

func (s *service) Invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, constants.BuildHistoryKey(userID.String())); err != nil {
		s.log.WarnContext(ctx, "history cache invalidation failed", "user_id", userID.String(), "error", err)
	}
}

func (s *service) event(t notifications.EventType, b *Booking) *notifications.BookingEvent {
	evt := notifications.NewBookingEvent(t, b.ID, b.UserID)
	evt.BookingType = string(b.BookingType)
	evt.SeatNumbers = b.Seats()
	evt.TravelDate = b.TravelDate
	evt.Amount = b.TotalAmount
	return evt
}

func (s *service) publish(ctx context.Context, evt *notifications.BookingEvent) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.WarnContext(ctx, "publish booking event failed", "booking_id", evt.BookingID.String(), "type", string(evt.Type), "error", err)
	}
}
