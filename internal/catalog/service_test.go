package catalog

import (
	"context"
	"testing"
	"time"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/testutil"
	"travelhub/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type seatRecorder struct {
	events []uuid.UUID
	sawTx  bool
}

func (s *seatRecorder) CreateEventSeats(ctx context.Context, tx *gorm.DB, event *Event) error {
	s.events = append(s.events, event.ID)
	s.sawTx = tx != nil
	return nil
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"flight":  KindFlight,
		"flights": KindFlight,
		"trains":  KindTrain,
		"buses":   KindBus,
		"movie":   KindMovie,
		"events":  KindEvent,
	}
	for in, want := range cases {
		got, ok := ParseKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseKind("premium_service")
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown flight is not found", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		svc := NewService(db, NewRepository(db), &seatRecorder{}, nil, logger.Discard())

		mock.ExpectQuery(`SELECT \* FROM "flights" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.Lookup(ctx, KindFlight, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("bus carries its layout type and departure", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		svc := NewService(db, NewRepository(db), &seatRecorder{}, nil, logger.Discard())

		id := uuid.New()
		dep := time.Date(2026, 11, 2, 21, 30, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT \* FROM "buses" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "operator", "bus_type", "origin", "destination", "departure_time", "arrival_time"}).
				AddRow(id, "NightLine", "sleeper", "Pune", "Goa", dep, dep.Add(9*time.Hour)))

		item, err := svc.Lookup(ctx, KindBus, id)
		require.NoError(t, err)
		assert.Equal(t, BusSleeper, item.BusType)
		require.NotNil(t, item.ServiceDate)
		assert.True(t, dep.Equal(*item.ServiceDate))
	})
}

func TestCurrentEventIsLatestCreated(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	svc := NewService(db, NewRepository(db), &seatRecorder{}, nil, logger.Discard())

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "events" ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "venue", "rows", "seats_per_row", "base_price"}).
			AddRow(id, "Winter Jazz Night", "Blue Hall", 5, 10, "750.00"))

	event, err := svc.CurrentEvent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, event.ID)
	assert.True(t, decimal.NewFromInt(750).Equal(event.BasePrice))
}

func TestListFlightsAppliesRouteFilters(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	svc := NewService(db, NewRepository(db), &seatRecorder{}, nil, logger.Discard())

	mock.ExpectQuery(`SELECT \* FROM "flights" WHERE LOWER\(origin\) = \$1 AND LOWER\(destination\) = \$2 AND departure_time >= \$3 ORDER BY departure_time ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "airline", "flight_number", "origin", "destination"}).
			AddRow(uuid.New(), "SkyAir", "SA101", "delhi", "mumbai"))

	out, err := svc.List(context.Background(), KindFlight, ListQuery{Origin: "Delhi", Destination: "Mumbai", From: "2026-11-01"})
	require.NoError(t, err)
	flights, ok := out.([]Flight)
	require.True(t, ok)
	assert.Len(t, flights, 1)
}

func TestCreateEventMaterialisesSeatsInTransaction(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	seats := &seatRecorder{}
	svc := NewService(db, NewRepository(db), seats, nil, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "events"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	admin := uuid.New()
	event, err := svc.CreateEvent(context.Background(), admin, &CreateEventRequest{
		Name:        "Winter Jazz Night",
		Venue:       "Blue Hall",
		DateTime:    time.Now().Add(72 * time.Hour),
		Rows:        4,
		SeatsPerRow: 8,
		BasePrice:   decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, admin, event.CreatedBy)
	assert.Equal(t, []uuid.UUID{event.ID}, seats.events)
	assert.True(t, seats.sawTx)
}

func TestCreateEventRejectsNonPositivePrice(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	svc := NewService(db, NewRepository(db), &seatRecorder{}, nil, logger.Discard())

	_, err := svc.CreateEvent(context.Background(), uuid.New(), &CreateEventRequest{
		Name: "Free Gig", Venue: "Park", DateTime: time.Now(), Rows: 1, SeatsPerRow: 1,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
