package bookings

import (
	"context"
	"testing"
	"time"

	"travelhub/internal/notifications"
	"travelhub/internal/payments"
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

type restockSpy struct {
	eventID uuid.UUID
	ids     []string
	calls   int
}

func (r *restockSpy) Restock(_ context.Context, _ *gorm.DB, eventID uuid.UUID, ids []string) (int64, error) {
	r.calls++
	r.eventID, r.ids = eventID, ids
	return int64(len(ids)), nil
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
	svc       *service
	mock      sqlmock.Sqlmock
	restock   *restockSpy
	published *publisherSpy
}

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	db, mock := testutil.NewMockDB(t)
	rs, ps := &restockSpy{}, &publisherSpy{}
	jobs := config.JobsConfig{UnpaidBookingTTL: 30 * time.Minute, CompleteDueBatchCap: 100}
	svc := NewService(db, NewRepository(db), rs, nil, ps, jobs, logger.Discard()).(*service)
	svc.now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, mock: mock, restock: rs, published: ps}
}

var bookingCols = []string{"id", "user_id", "booking_type", "item_id", "seat_number", "booking_date", "ticket_status", "subtotal", "total_amount"}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	sess := &session.Session{UserID: uuid.New()}
	itemID := uuid.New()

	t.Run("anonymous caller", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.svc.db, nil, CreateInput{Type: TypeEvent, ItemID: itemID, SeatNumbers: []string{"A1"}})
		assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	})

	t.Run("empty selection", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.svc.db, sess, CreateInput{Type: TypeFlight, ItemID: itemID})
		var ve *apperrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "seats", ve.Field)
	})

	t.Run("unknown type", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.svc.db, sess, CreateInput{Type: "bus", ItemID: itemID, SeatNumbers: []string{"S1"}})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("seat booking starts booked", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectExec(`INSERT INTO "bookings"`).WillReturnResult(sqlmock.NewResult(1, 1))

		b, err := f.svc.Create(ctx, f.svc.db, sess, CreateInput{
			Type:        TypeEvent,
			ItemID:      itemID,
			SeatNumbers: []string{"A1", "A2"},
			Subtotal:    decimal.NewFromInt(1200),
			Total:       decimal.NewFromInt(1080),
		})
		require.NoError(t, err)
		assert.Equal(t, StatusBooked, b.TicketStatus)
		assert.Equal(t, sess.UserID, b.UserID)
		assert.Equal(t, "A1,A2", *b.SeatNumber)
		assert.Equal(t, []string{"A1", "A2"}, b.Seats())
		assert.True(t, decimal.NewFromInt(1080).Equal(b.TotalAmount))
		assert.Equal(t, fixedNow, b.BookingDate)
	})

	t.Run("premium service needs no seats", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectExec(`INSERT INTO "bookings"`).WillReturnResult(sqlmock.NewResult(1, 1))

		b, err := f.svc.Create(ctx, f.svc.db, sess, CreateInput{Type: TypePremiumService, ItemID: sess.UserID, Total: decimal.NewFromInt(199)})
		require.NoError(t, err)
		assert.Nil(t, b.SeatNumber)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sess := &session.Session{UserID: userID, Email: "asha@example.com"}
	bookingID, eventID := uuid.New(), uuid.New()
	lock := `SELECT \* FROM "bookings" WHERE id = \$1 AND user_id = \$2 .*FOR UPDATE`

	row := func(status TicketStatus) *sqlmock.Rows {
		return sqlmock.NewRows(bookingCols).
			AddRow(bookingID, userID, "event", eventID, "A1,A2", fixedNow.Add(-time.Hour), string(status), "1200", "1080")
	}

	t.Run("anonymous caller", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Cancel(ctx, nil, bookingID)
		assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	})

	t.Run("booked event booking is cancelled and restocked", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery(lock).WillReturnRows(row(StatusBooked))
		f.mock.ExpectExec(`UPDATE "bookings" SET .*WHERE id = \$\d+ AND user_id = \$\d+ AND ticket_status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectCommit()

		b, err := f.svc.Cancel(ctx, sess, bookingID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, b.TicketStatus)
		assert.NotNil(t, b.CancelledAt)
		assert.Equal(t, 1, f.restock.calls)
		assert.Equal(t, eventID, f.restock.eventID)
		assert.Equal(t, []string{"A1", "A2"}, f.restock.ids)
		require.Len(t, f.published.events, 1)
		assert.Equal(t, notifications.EventBookingCancelled, f.published.events[0].Type)
		assert.Equal(t, "asha@example.com", f.published.events[0].RecipientEmail)
	})

	t.Run("already cancelled is a no-op success", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery(lock).WillReturnRows(row(StatusCancelled))
		f.mock.ExpectCommit()

		b, err := f.svc.Cancel(ctx, sess, bookingID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, b.TicketStatus)
		assert.Zero(t, f.restock.calls)
		assert.Empty(t, f.published.events)
	})

	t.Run("update matching zero rows is tolerated", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery(lock).WillReturnRows(row(StatusBooked))
		f.mock.ExpectExec(`UPDATE "bookings" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		f.mock.ExpectCommit()

		_, err := f.svc.Cancel(ctx, sess, bookingID)
		require.NoError(t, err)
		assert.Zero(t, f.restock.calls)
		assert.Empty(t, f.published.events)
	})

	t.Run("another user's booking is not found", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery(lock).WillReturnRows(sqlmock.NewRows(bookingCols))
		f.mock.ExpectRollback()

		_, err := f.svc.Cancel(ctx, sess, bookingID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("completed booking cannot be cancelled", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery(lock).WillReturnRows(row(StatusCompleted))
		f.mock.ExpectRollback()

		_, err := f.svc.Cancel(ctx, sess, bookingID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestCompleteDue(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectExec(`UPDATE "bookings" SET "ticket_status"=\$1,"updated_at"=\$2 WHERE id IN \(SELECT "?id"? FROM "bookings" WHERE .*travel_date < .*ORDER BY travel_date ASC LIMIT .+\)`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := f.svc.CompleteDue(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

const expireUnpaid = `^UPDATE "bookings" SET "ticket_status"=\$1,"updated_at"=\$2 WHERE \(?id = \$3 AND ticket_status = \$4\)? ` +
	`AND NOT EXISTS \(SELECT 1 FROM "payments" WHERE payments.booking_id = bookings.id AND payments.payment_status = \$5\)$`

func TestExpireUnpaid(t *testing.T) {
	f := newFixture(t)
	userID, eventBooking, movieBooking := uuid.New(), uuid.New(), uuid.New()

	f.mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE .*NOT EXISTS \(SELECT 1 FROM "payments"`).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(eventBooking, userID, "event", uuid.New(), "B4", fixedNow.Add(-2*time.Hour), "booked", "500", "500").
			AddRow(movieBooking, userID, "movie", uuid.New(), "C7", fixedNow.Add(-time.Hour), "booked", "250", "250"))

	f.mock.ExpectBegin()
	f.mock.ExpectExec(expireUnpaid).WithArgs(StatusExpired, sqlmock.AnyArg(), eventBooking, StatusBooked, payments.StatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()
	// the second row was paid or cancelled in between
	f.mock.ExpectBegin()
	f.mock.ExpectExec(expireUnpaid).WithArgs(StatusExpired, sqlmock.AnyArg(), movieBooking, StatusBooked, payments.StatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectCommit()

	n, err := f.svc.ExpireUnpaid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, f.restock.calls)
	assert.Equal(t, []string{"B4"}, f.restock.ids)
	require.Len(t, f.published.events, 1)
	assert.Equal(t, notifications.EventBookingExpired, f.published.events[0].Type)
}

func TestGetIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner, stranger := uuid.New(), uuid.New()
	bookingID := uuid.New()

	f.mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(bookingID, owner, "flight", uuid.New(), "12A", fixedNow, "booked", "900", "900"))
	f.mock.ExpectQuery(`SELECT \* FROM "payments" WHERE "payments"."booking_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id"}))

	_, err := f.svc.Get(context.Background(), &session.Session{UserID: stranger}, bookingID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
