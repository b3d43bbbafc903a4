package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"travelhub/internal/bookings"
	"travelhub/internal/catalog"
	"travelhub/internal/coupons"
	"travelhub/internal/notifications"
	"travelhub/internal/payments"
	"travelhub/internal/seats"
	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/config"
	"travelhub/internal/shared/session"
	"travelhub/internal/shared/testutil"
	"travelhub/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubItems struct {
	item *catalog.Item
}

func (s stubItems) Lookup(_ context.Context, kind catalog.Kind, id uuid.UUID) (*catalog.Item, error) {
	if s.item == nil || s.item.ID != id || s.item.Kind != kind {
		return nil, apperrors.NotFound(string(kind))
	}
	return s.item, nil
}

// stubInventory prices A1 at 500 and A2 at 700; anything else is taken.
type stubInventory struct {
	released []string
}

func (s *stubInventory) units(ids []string) ([]seats.Unit, error) {
	prices := map[string]int64{"A1": 500, "A2": 700}
	out := make([]seats.Unit, 0, len(ids))
	for _, id := range ids {
		p, ok := prices[id]
		if !ok {
			return nil, apperrors.SeatUnavailable("price seats", fmt.Errorf("seat %s is not available", id))
		}
		out = append(out, seats.Unit{ID: id, Number: id, Price: decimal.NewFromInt(p), Available: true})
	}
	return out, nil
}

func (s *stubInventory) Price(_ context.Context, _ *catalog.Item, ids []string) ([]seats.Unit, error) {
	return s.units(ids)
}

func (s *stubInventory) ReserveEventSeats(_ context.Context, _ *gorm.DB, _, _ uuid.UUID, ids []string) ([]seats.Unit, error) {
	return s.units(ids)
}

func (s *stubInventory) ReleaseFor(_ context.Context, _ uuid.UUID, holdID string) (int, error) {
	s.released = append(s.released, holdID)
	return 2, nil
}

type publisherSpy struct {
	events []*notifications.BookingEvent
}

func (p *publisherSpy) Publish(_ context.Context, e *notifications.BookingEvent) error {
	p.events = append(p.events, e)
	return nil
}

func (p *publisherSpy) Close() error { return nil }

type fixture struct {
	svc       Service
	mock      sqlmock.Sqlmock
	inventory *stubInventory
	published *publisherSpy
	cache     *testutil.MemCache
	movie     *catalog.Item
}

func newFixture(t *testing.T) *fixture {
	db, mock := testutil.NewMockDB(t)
	log := logger.Discard()
	cfg := &config.Config{APIPrefix: "/api", APIVersion: "v1"}

	show := time.Date(2026, 11, 2, 18, 30, 0, 0, time.UTC)
	movie := &catalog.Item{Kind: catalog.KindMovie, ID: uuid.New(), Title: "Night Train", ServiceDate: &show}

	inv, pub, mem := &stubInventory{}, &publisherSpy{}, testutil.NewMemCache()
	bookingSvc := bookings.NewService(db, bookings.NewRepository(db), nil, nil, nil, config.JobsConfig{}, log)
	svc := NewService(Deps{
		DB:        db,
		Items:     stubItems{item: movie},
		Inventory: inv,
		Coupons:   coupons.NewService(coupons.NewRepository(db), log),
		Bookings:  bookingSvc,
		Payments:  payments.NewService(db, payments.NewRepository(db), bookingSvc, nil, nil, cfg, log),
		Cache:     mem,
		Publisher: pub,
		Log:       log,
	})
	return &fixture{svc: svc, mock: mock, inventory: inv, published: pub, cache: mem, movie: movie}
}

func cardPayment() *payments.Form {
	return &payments.Form{
		Method: payments.MethodCreditCard,
		Card:   &payments.CardFields{Number: "4111111111111111", Expiry: "09/29", CVV: "321", HolderName: "Asha Rao"},
	}
}

func expectSave10(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE code = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "discount_percentage", "valid_from", "valid_until", "max_uses", "current_uses"}).
			AddRow(uuid.New(), "SAVE10", "10", time.Now().Add(-24*time.Hour), time.Now().Add(30*24*time.Hour), 100, 3))
}

func TestCheckoutWithCouponAndCard(t *testing.T) {
	f := newFixture(t)
	sess := &session.Session{UserID: uuid.New(), Email: "asha@example.com"}

	expectSave10(f.mock)
	f.mock.ExpectBegin()
	f.mock.ExpectExec(`UPDATE "coupons" SET "current_uses"=current_uses \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(`INSERT INTO "bookings"`).WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec(`INSERT INTO "payments"`).WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec(`INSERT INTO "payment_details"`).WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()

	res, err := f.svc.Checkout(context.Background(), sess, "", &Request{
		ItemType:   "movie",
		ItemID:     f.movie.ID,
		Seats:      []string{"A1", "A2"},
		HoldID:     "hold-1",
		CouponCode: "save10",
		Payment:    cardPayment(),
	})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(1200).Equal(res.Subtotal), "subtotal %s", res.Subtotal)
	assert.True(t, decimal.NewFromInt(1080).Equal(res.Total), "total %s", res.Total)
	assert.True(t, decimal.NewFromInt(1080).Equal(res.Booking.TotalAmount))
	assert.Equal(t, bookings.StatusBooked, res.Booking.TicketStatus)
	assert.Equal(t, "A1,A2", *res.Booking.SeatNumber)
	assert.Equal(t, f.movie.ServiceDate, res.Booking.TravelDate)
	require.NotNil(t, res.Payment)
	assert.True(t, decimal.NewFromInt(1080).Equal(res.Payment.Amount))
	assert.Equal(t, payments.StatusCompleted, res.Payment.PaymentStatus)
	assert.Equal(t, res.Booking.ID, res.Payment.BookingID)

	assert.Equal(t, []string{"hold-1"}, f.inventory.released)
	require.Len(t, f.published.events, 1)
	assert.Equal(t, notifications.EventBookingCreated, f.published.events[0].Type)
	assert.Equal(t, "Night Train", f.published.events[0].ItemTitle)
}

func TestCheckoutAnonymousCreatesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background(), nil, "", &Request{
		ItemType: "event",
		ItemID:   uuid.New(),
		Seats:    []string{"A1"},
		Payment:  cardPayment(),
	})
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	assert.Empty(t, f.published.events)
}

func TestCheckoutRejections(t *testing.T) {
	sess := &session.Session{UserID: uuid.New()}

	t.Run("bus tickets", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(context.Background(), sess, "", &Request{ItemType: "bus", ItemID: uuid.New(), Seats: []string{"S1"}})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("empty selection", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(context.Background(), sess, "", &Request{ItemType: "movie", ItemID: f.movie.ID})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("premium requires payment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(context.Background(), sess, "", &Request{ItemType: "premium_service", Plan: "monthly"})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("invalid payment form", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(context.Background(), sess, "", &Request{
			ItemType: "movie", ItemID: f.movie.ID, Seats: []string{"A1"},
			Payment: &payments.Form{Method: payments.MethodUPI, UPI: &payments.UPIFields{ID: "nohandle"}},
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown coupon writes nothing", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE code = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "code"}))

		_, err := f.svc.Checkout(context.Background(), sess, "", &Request{
			ItemType: "movie", ItemID: f.movie.ID, Seats: []string{"A1"}, CouponCode: "NOPE",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCoupon)
	})

	t.Run("taken seat rolls back", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()

		_, err := f.svc.Checkout(context.Background(), sess, "", &Request{
			ItemType: "movie", ItemID: f.movie.ID, Seats: []string{"A1", "Z9"}, Payment: cardPayment(),
		})
		assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)
	})

	t.Run("payment insert failure rolls back the booking", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectExec(`INSERT INTO "bookings"`).WillReturnResult(sqlmock.NewResult(1, 1))
		f.mock.ExpectExec(`INSERT INTO "payments"`).WillReturnError(fmt.Errorf("connection reset"))
		f.mock.ExpectRollback()

		_, err := f.svc.Checkout(context.Background(), sess, "", &Request{
			ItemType: "movie", ItemID: f.movie.ID, Seats: []string{"A1"}, Payment: cardPayment(),
		})
		assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
		assert.Empty(t, f.published.events)
	})
}

func TestCheckoutPayLater(t *testing.T) {
	f := newFixture(t)
	sess := &session.Session{UserID: uuid.New()}

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`INSERT INTO "bookings"`).WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()

	res, err := f.svc.Checkout(context.Background(), sess, "", &Request{ItemType: "movies", ItemID: f.movie.ID, Seats: []string{"A2"}})
	require.NoError(t, err)
	assert.Nil(t, res.Payment)
	assert.Equal(t, bookings.StatusBooked, res.Booking.TicketStatus)
	assert.True(t, decimal.NewFromInt(700).Equal(res.Total))
}

func TestCheckoutIdempotencyKeyReplays(t *testing.T) {
	f := newFixture(t)
	sess := &session.Session{UserID: uuid.New()}
	req := &Request{ItemType: "movie", ItemID: f.movie.ID, Seats: []string{"A1"}, Payment: cardPayment()}

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`INSERT INTO "bookings"`).WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec(`INSERT INTO "payments"`).WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec(`INSERT INTO "payment_details"`).WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()

	first, err := f.svc.Checkout(context.Background(), sess, "key-123", req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	// no further SQL is expected for the retry
	second, err := f.svc.Checkout(context.Background(), sess, "key-123", req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)
	assert.Equal(t, first.Payment.TransactionID, second.Payment.TransactionID)
	assert.Len(t, f.published.events, 1)
}
