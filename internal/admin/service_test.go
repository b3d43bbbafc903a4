package admin

import (
	"context"
	"testing"

	"travelhub/internal/bookings"
	"travelhub/internal/notifications"
	"travelhub/internal/payments"
	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/constants"
	"travelhub/internal/shared/session"
	"travelhub/internal/shared/testutil"
	"travelhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubLedger struct {
	payment   *payments.Payment
	refundErr error
	revenue   decimal.Decimal
}

func (s *stubLedger) Refund(_ context.Context, _ *gorm.DB, id uuid.UUID) (*payments.Payment, error) {
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	p := *s.payment
	p.PaymentStatus = payments.StatusRefunded
	return &p, nil
}

func (s *stubLedger) Revenue(context.Context) (decimal.Decimal, error) { return s.revenue, nil }

func (s *stubLedger) CountByStatus(context.Context) (map[payments.Status]int64, error) {
	return map[payments.Status]int64{payments.StatusCompleted: 3, payments.StatusRefunded: 1}, nil
}

type stubStore struct {
	booking     *bookings.Booking
	cancelled   []uuid.UUID
	invalidated []uuid.UUID
	counted     int
}

func (s *stubStore) ForceCancel(_ context.Context, _ *gorm.DB, id uuid.UUID) (*bookings.Booking, error) {
	s.cancelled = append(s.cancelled, id)
	b := *s.booking
	b.TicketStatus = bookings.StatusCancelled
	return &b, nil
}

func (s *stubStore) CountByStatus(context.Context) (map[bookings.TicketStatus]int64, error) {
	s.counted++
	return map[bookings.TicketStatus]int64{bookings.StatusBooked: 4, bookings.StatusCancelled: 2}, nil
}

func (s *stubStore) CountByType(context.Context) (map[bookings.BookingType]int64, error) {
	return map[bookings.BookingType]int64{bookings.TypeEvent: 6}, nil
}

func (s *stubStore) Invalidate(_ context.Context, userID uuid.UUID) {
	s.invalidated = append(s.invalidated, userID)
}

type fakeLocker struct {
	busy     bool
	obtained []string
	released int
}

func (l *fakeLocker) Obtain(_ context.Context, key string) (func(), error) {
	if l.busy {
		return nil, errLockBusy
	}
	l.obtained = append(l.obtained, key)
	return func() { l.released++ }, nil
}

type publisherSpy struct {
	events []*notifications.BookingEvent
}

func (p *publisherSpy) Publish(_ context.Context, e *notifications.BookingEvent) error {
	p.events = append(p.events, e)
	return nil
}

func (p *publisherSpy) Close() error { return nil }

func refundFixture(t *testing.T) (*stubLedger, *stubStore) {
	t.Helper()
	userID, bookingID := uuid.New(), uuid.New()
	ledger := &stubLedger{payment: &payments.Payment{
		ID: uuid.New(), BookingID: bookingID, Amount: decimal.NewFromInt(1080),
		PaymentMethod: payments.MethodUPI, PaymentStatus: payments.StatusCompleted, TransactionID: "TXN0000000001",
	}}
	store := &stubStore{booking: &bookings.Booking{
		ID: bookingID, UserID: userID, BookingType: bookings.TypeEvent, TicketStatus: bookings.StatusBooked,
	}}
	return ledger, store
}

func TestRefund(t *testing.T) {
	ctx := context.Background()
	adminSess := &session.Session{UserID: uuid.New(), Role: "admin"}

	t.Run("refunds payment and cancels booking", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		ledger, store := refundFixture(t)
		locker, spy, mem := &fakeLocker{}, &publisherSpy{}, testutil.NewMemCache()
		require.NoError(t, mem.Set(ctx, constants.CACHE_KEY_ADMIN_STATS, Stats{TotalBookings: 9}, 0))
		svc := NewService(db, ledger, store, locker, mem, spy, logger.Discard())

		mock.ExpectBegin()
		mock.ExpectCommit()

		res, err := svc.Refund(ctx, adminSess, ledger.payment.ID)
		require.NoError(t, err)
		assert.Equal(t, payments.StatusRefunded, res.Payment.PaymentStatus)
		assert.Equal(t, bookings.StatusCancelled, res.Booking.TicketStatus)
		assert.Equal(t, []uuid.UUID{store.booking.ID}, store.cancelled)
		assert.Equal(t, []uuid.UUID{store.booking.UserID}, store.invalidated)

		assert.Equal(t, []string{constants.BuildRefundLockKey(ledger.payment.ID.String())}, locker.obtained)
		assert.Equal(t, 1, locker.released)
		assert.False(t, mem.Has(constants.CACHE_KEY_ADMIN_STATS))

		require.Len(t, spy.events, 1)
		assert.Equal(t, notifications.EventPaymentRefunded, spy.events[0].Type)
		assert.Equal(t, "TXN0000000001", spy.events[0].TransactionID)
	})

	t.Run("non-completed payment is rejected and rolled back", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		ledger, store := refundFixture(t)
		ledger.refundErr = apperrors.Validation("payment", "only completed payments can be refunded")
		locker, spy := &fakeLocker{}, &publisherSpy{}
		svc := NewService(db, ledger, store, locker, nil, spy, logger.Discard())

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Refund(ctx, adminSess, ledger.payment.ID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Empty(t, store.cancelled)
		assert.Empty(t, spy.events)
		assert.Equal(t, 1, locker.released)
	})

	t.Run("concurrent refund is refused", func(t *testing.T) {
		db, _ := testutil.NewMockDB(t)
		ledger, store := refundFixture(t)
		svc := NewService(db, ledger, store, &fakeLocker{busy: true}, nil, nil, logger.Discard())

		_, err := svc.Refund(ctx, adminSess, ledger.payment.ID)
		var ve *apperrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "payment", ve.Field)
	})

	t.Run("anonymous", func(t *testing.T) {
		db, _ := testutil.NewMockDB(t)
		ledger, store := refundFixture(t)
		svc := NewService(db, ledger, store, &fakeLocker{}, nil, nil, logger.Discard())

		_, err := svc.Refund(ctx, nil, ledger.payment.ID)
		assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	})
}

func TestStatsAreCached(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	ledger, store := refundFixture(t)
	ledger.revenue = decimal.RequireFromString("3240.00")
	svc := NewService(db, ledger, store, nil, testutil.NewMemCache(), nil, logger.Discard())

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 6, st.TotalBookings)
	assert.EqualValues(t, 6, st.BookingsByType[bookings.TypeEvent])
	assert.True(t, decimal.NewFromInt(3240).Equal(st.Revenue))

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.counted)
}
