package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"travelhub/internal/shared/testutil"
	"travelhub/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMigrateConstraints(t *testing.T) {
	db, mock := testutil.NewMockDB(t)

	for _, stmt := range []string{
		`chk_coupon_single_discount`,
		`chk_coupon_usage`,
		`chk_booking_amounts`,
		`fk_payments_booking`,
		`fk_payment_details_payment`,
		`fk_seats_event`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_one_completed`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_due`,
	} {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, MigrateConstraints(db))
}

func TestMigrateConstraintsStopsOnError(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	mock.ExpectExec(`chk_coupon_single_discount`).WillReturnError(errors.New("permission denied"))

	assert.Error(t, MigrateConstraints(db))
}

func TestGormLoggerTrace(t *testing.T) {
	ctx := context.Background()
	query := func() (string, int64) { return `SELECT * FROM "bookings"`, 3 }

	t.Run("slow query is reported", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewGormLogger(logger.NewWithWriter(&buf, "debug"), 100*time.Millisecond, false)

		l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
		assert.Contains(t, buf.String(), "Slow Database Query")
	})

	t.Run("failed query is an error", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewGormLogger(logger.NewWithWriter(&buf, "debug"), time.Second, false)

		l.Trace(ctx, time.Now(), query, errors.New("deadlock detected"))
		assert.Contains(t, buf.String(), "query failed")
		assert.Contains(t, buf.String(), "deadlock detected")
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewGormLogger(logger.NewWithWriter(&buf, "debug"), time.Second, false)

		l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("verbose mode logs every query", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewGormLogger(logger.NewWithWriter(&buf, "debug"), time.Second, true)

		l.Trace(ctx, time.Now(), query, nil)
		assert.Contains(t, buf.String(), `SELECT * FROM \"bookings\"`)
	})

	t.Run("silent mode logs nothing", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewGormLogger(logger.NewWithWriter(&buf, "debug"), time.Millisecond, true).LogMode(gormlogger.Silent)

		l.Trace(ctx, time.Now().Add(-time.Second), query, errors.New("boom"))
		assert.Empty(t, buf.String())
	})
}
