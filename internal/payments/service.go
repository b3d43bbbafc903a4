package payments

import (
	"context"
	"time"

	"travelhub/internal/notifications"
	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/config"
	"travelhub/internal/shared/constants"
	"travelhub/internal/shared/session"
	"travelhub/pkg/cache"
	"travelhub/pkg/logger"
	"travelhub/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingFinder loads a booking the caller may pay for; implemented by the bookings package.
type BookingFinder interface {
	PayableBooking(ctx context.Context, tx *gorm.DB, userID, bookingID uuid.UUID) (*BookingRef, error)
}

type Service interface {
	ValidateForm(form *Form) error
	// Capture records a completed payment and its detail inside tx. The form must already be valid.
	Capture(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID, amount decimal.Decimal, form *Form) (*Payment, error)
	// Submit pays for an existing unpaid booking owned by the caller.
	Submit(ctx context.Context, s *session.Session, req *SubmitRequest) (*Payment, error)
	// Refund flips a completed payment to refunded inside tx.
	Refund(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID) (*Payment, error)

	Get(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)
	List(ctx context.Context, q ListQuery) (*PaymentList, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}

type service struct {
	db        *gorm.DB
	repo      Repository
	bookings  BookingFinder
	cache     cache.Service
	publisher notifications.Publisher
	validate  *validator.Validate
	cfg       *config.Config
	log       *logger.Logger
	now       func() time.Time
	newTxnID  func() (string, error)
}

func NewService(db *gorm.DB, repo Repository, bookings BookingFinder, cacheSvc cache.Service, publisher notifications.Publisher, cfg *config.Config, log *logger.Logger) Service {
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	return &service{
		db:        db,
		repo:      repo,
		bookings:  bookings,
		cache:     cacheSvc,
		publisher: publisher,
		validate:  NewValidator(),
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		newTxnID:  NewTransactionID,
	}
}

func (s *service) ValidateForm(form *Form) error {
	if form == nil {
		return apperrors.Validation("payment", "payment details are required")
	}
	return form.Validate(s.validate)
}

func (s *service) Capture(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID, amount decimal.Decimal, form *Form) (*Payment, error) {
	txnID, err := s.newTxnID()
	if err != nil {
		return nil, s.failed(ctx, bookingID, form.Method, apperrors.PaymentFailed("generate transaction id", err))
	}

	receipt := s.cfg.DocumentURL(bookingID.String(), "receipt")
	ticket := s.cfg.DocumentURL(bookingID.String(), "ticket")
	p := &Payment{
		BookingID:     bookingID,
		Amount:        amount.Round(2),
		PaymentMethod: form.Method,
		PaymentStatus: StatusCompleted,
		PaymentDate:   s.now().UTC(),
		TransactionID: txnID,
		ReceiptURL:    &receipt,
		TicketURL:     &ticket,
	}

	repo := s.repo.WithTx(tx)
	if err := repo.Create(ctx, p); err != nil {
		return nil, s.failed(ctx, bookingID, form.Method, err)
	}

	detail := form.Detail()
	detail.PaymentID = p.ID
	if err := repo.CreateDetail(ctx, detail); err != nil {
		return nil, s.failed(ctx, bookingID, form.Method, err)
	}
	p.Detail = detail

	metrics.PaymentRecorded(string(p.PaymentMethod), string(StatusCompleted))
	s.log.LogPaymentCaptured(ctx, p.ID.String(), bookingID.String(), string(p.PaymentMethod), p.TransactionID)
	return p, nil
}

func (s *service) failed(ctx context.Context, bookingID uuid.UUID, method Method, err error) error {
	metrics.PaymentRecorded(string(method), string(StatusFailed))
	s.log.LogPaymentFailed(ctx, bookingID.String(), string(method), err)
	return err
}

func (s *service) Submit(ctx context.Context, sess *session.Session, req *SubmitRequest) (*Payment, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateForm(&req.Form); err != nil {
		return nil, err
	}

	var payment *Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := s.bookings.PayableBooking(ctx, tx, sess.UserID, req.BookingID)
		if err != nil {
			return err
		}
		if ref.TicketStatus != "booked" {
			return apperrors.Validation("booking_id", "only active bookings can be paid")
		}

		paid, err := s.repo.WithTx(tx).HasCompleted(ctx, ref.ID)
		if err != nil {
			return err
		}
		if paid {
			return apperrors.Validation("booking_id", "booking is already paid")
		}
		if !req.Amount.Equal(ref.TotalAmount) {
			return apperrors.Validation("amount", "must equal the booking total")
		}

		payment, err = s.Capture(ctx, tx, ref.ID, ref.TotalAmount, &req.Form)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCapture(ctx, sess.UserID, payment)
	return payment, nil
}

func (s *service) afterCapture(ctx context.Context, userID uuid.UUID, p *Payment) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, constants.BuildHistoryKey(userID.String()))
	}

	evt := notifications.NewBookingEvent(notifications.EventPaymentCompleted, p.BookingID, userID)
	evt.Amount = p.Amount
	evt.PaymentID = &p.ID
	evt.TransactionID = p.TransactionID
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.WarnContext(ctx, "publish payment event failed", "payment_id", p.ID.String(), "error", err)
	}
}

func (s *service) Refund(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID) (*Payment, error) {
	repo := s.repo.WithTx(tx)
	p, err := repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.PaymentStatus != StatusCompleted {
		return nil, apperrors.Validation("payment", "only completed payments can be refunded")
	}

	ok, err := repo.MarkRefunded(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Validation("payment", "only completed payments can be refunded")
	}

	p.PaymentStatus = StatusRefunded
	metrics.PaymentRecorded(string(p.PaymentMethod), string(StatusRefunded))
	return p, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

func (s *service) List(ctx context.Context, q ListQuery) (*PaymentList, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	list, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &PaymentList{
		Payments:   list,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
	}, nil
}

func (s *service) Revenue(ctx context.Context) (decimal.Decimal, error) {
	return s.repo.Revenue(ctx)
}

func (s *service) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	return s.repo.CountByStatus(ctx)
}
