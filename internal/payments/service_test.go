package payments

import (
	"context"
	"errors"
	"regexp"
	"testing"

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

func cardForm() *Form {
	return &Form{
		Method: MethodCreditCard,
		Card: &CardFields{
			Number:     "4111 1111 1111 1111",
			Expiry:     "12/28",
			CVV:        "123",
			HolderName: "Asha Rao",
		},
	}
}

func TestFormValidate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name  string
		form  *Form
		field string
	}{
		{"card ok", cardForm(), ""},
		{"debit card ok", &Form{Method: MethodDebitCard, Card: cardForm().Card}, ""},
		{"card missing block", &Form{Method: MethodCreditCard}, "card"},
		{"card short number", &Form{Method: MethodCreditCard, Card: &CardFields{Number: "4111", Expiry: "12/28", CVV: "123", HolderName: "Asha"}}, "card_number"},
		{"card bad expiry", &Form{Method: MethodCreditCard, Card: &CardFields{Number: "4111111111111111", Expiry: "13/28", CVV: "123", HolderName: "Asha"}}, "expiry"},
		{"card bad cvv", &Form{Method: MethodCreditCard, Card: &CardFields{Number: "4111111111111111", Expiry: "01/30", CVV: "12a", HolderName: "Asha"}}, "cvv"},
		{"upi ok", &Form{Method: MethodUPI, UPI: &UPIFields{ID: "asha.rao@okbank"}}, ""},
		{"upi without handle", &Form{Method: MethodUPI, UPI: &UPIFields{ID: "asharao"}}, "upi_id"},
		{"bank ok", &Form{Method: MethodBankTransfer, Bank: &BankFields{AccountNumber: "1234 5678 9012", IFSC: "hdfc0001234", HolderName: "Asha Rao"}}, ""},
		{"bank short ifsc", &Form{Method: MethodBankTransfer, Bank: &BankFields{AccountNumber: "123456789012", IFSC: "HDFC01", HolderName: "Asha Rao"}}, "ifsc_code"},
		{"unknown method", &Form{Method: "cash"}, "payment_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate(v)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestFormDetailMasksSensitiveFields(t *testing.T) {
	f := cardForm()
	f.Normalize()
	d := f.Detail()
	require.NotNil(t, d.CardLastFour)
	assert.Equal(t, "1111", *d.CardLastFour)
	assert.Nil(t, d.UPIID)

	bank := &Form{Method: MethodBankTransfer, Bank: &BankFields{AccountNumber: "123456789012", IFSC: "HDFC0001234"}}
	d = bank.Detail()
	require.NotNil(t, d.AccountMasked)
	assert.Equal(t, "XXXXXXXX9012", *d.AccountMasked)
	assert.Equal(t, "HDFC0001234", *d.IFSCCode)
}

func TestNewTransactionID(t *testing.T) {
	pattern := regexp.MustCompile(`^TXN[0-9A-Z]{10}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := NewTransactionID()
		require.NoError(t, err)
		assert.Regexp(t, pattern, id)
		seen[id] = true
	}
	assert.Len(t, seen, 50)
}

type stubFinder struct {
	ref *BookingRef
	err error
}

func (f stubFinder) PayableBooking(_ context.Context, _ *gorm.DB, userID, bookingID uuid.UUID) (*BookingRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ref, nil
}

func newTestService(t *testing.T, finder BookingFinder) (*service, sqlmock.Sqlmock) {
	db, mock := testutil.NewMockDB(t)
	cfg := &config.Config{APIPrefix: "/api", APIVersion: "v1"}
	svc := NewService(db, NewRepository(db), finder, nil, nil, cfg, logger.Discard()).(*service)
	svc.newTxnID = func() (string, error) { return "TXNABC123XYZ9", nil }
	return svc, mock
}

func TestCapture(t *testing.T) {
	ctx := context.Background()
	bookingID := uuid.New()

	t.Run("writes payment and detail", func(t *testing.T) {
		svc, mock := newTestService(t, nil)
		mock.ExpectExec(`INSERT INTO "payments"`).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO "payment_details"`).WillReturnResult(sqlmock.NewResult(1, 1))

		form := cardForm()
		require.NoError(t, svc.ValidateForm(form))
		p, err := svc.Capture(ctx, svc.db, bookingID, decimal.NewFromInt(1080), form)
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, p.PaymentStatus)
		assert.Equal(t, "TXNABC123XYZ9", p.TransactionID)
		assert.True(t, decimal.NewFromInt(1080).Equal(p.Amount))
		assert.Equal(t, "/api/v1/bookings/"+bookingID.String()+"/receipt", *p.ReceiptURL)
		assert.Equal(t, "/api/v1/bookings/"+bookingID.String()+"/ticket", *p.TicketURL)
		require.NotNil(t, p.Detail)
		assert.Equal(t, p.ID, p.Detail.PaymentID)
	})

	t.Run("insert failure is a payment failure", func(t *testing.T) {
		svc, mock := newTestService(t, nil)
		mock.ExpectExec(`INSERT INTO "payments"`).WillReturnError(errors.New("connection reset"))

		_, err := svc.Capture(ctx, svc.db, bookingID, decimal.NewFromInt(500), cardForm())
		assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sess := &session.Session{UserID: userID}
	ref := &BookingRef{ID: uuid.New(), UserID: userID, TotalAmount: decimal.NewFromInt(1080), TicketStatus: "booked"}

	t.Run("anonymous caller", func(t *testing.T) {
		svc, _ := newTestService(t, stubFinder{ref: ref})
		_, err := svc.Submit(ctx, nil, &SubmitRequest{BookingID: ref.ID, Amount: ref.TotalAmount, Form: *cardForm()})
		assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	})

	t.Run("amount must match booking total", func(t *testing.T) {
		svc, mock := newTestService(t, stubFinder{ref: ref})
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "payments"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectRollback()

		_, err := svc.Submit(ctx, sess, &SubmitRequest{BookingID: ref.ID, Amount: decimal.NewFromInt(1200), Form: *cardForm()})
		var ve *apperrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "amount", ve.Field)
	})

	t.Run("already paid", func(t *testing.T) {
		svc, mock := newTestService(t, stubFinder{ref: ref})
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "payments"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		_, err := svc.Submit(ctx, sess, &SubmitRequest{BookingID: ref.ID, Amount: ref.TotalAmount, Form: *cardForm()})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("pays an unpaid booking", func(t *testing.T) {
		svc, mock := newTestService(t, stubFinder{ref: ref})
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "payments"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO "payments"`).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO "payment_details"`).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		p, err := svc.Submit(ctx, sess, &SubmitRequest{BookingID: ref.ID, Amount: ref.TotalAmount, Form: *cardForm()})
		require.NoError(t, err)
		assert.Equal(t, ref.ID, p.BookingID)
		assert.Equal(t, StatusCompleted, p.PaymentStatus)
	})
}

func TestRefund(t *testing.T) {
	ctx := context.Background()
	paymentID := uuid.New()
	cols := []string{"id", "booking_id", "amount", "payment_method", "payment_status", "transaction_id"}

	t.Run("completed payment is refunded", func(t *testing.T) {
		svc, mock := newTestService(t, nil)
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(paymentID, uuid.New(), "1080", "credit_card", "completed", "TXNABC123XYZ9"))
		mock.ExpectQuery(`SELECT \* FROM "payment_details"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id"}))
		mock.ExpectExec(`UPDATE "payments" SET "payment_status"=\$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		p, err := svc.Refund(ctx, svc.db, paymentID)
		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, p.PaymentStatus)
	})

	t.Run("pending payment is rejected", func(t *testing.T) {
		svc, mock := newTestService(t, nil)
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(paymentID, uuid.New(), "1080", "upi", "pending", "TXNABC123XYZ9"))
		mock.ExpectQuery(`SELECT \* FROM "payment_details"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id"}))

		_, err := svc.Refund(ctx, svc.db, paymentID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("lost race against another refund", func(t *testing.T) {
		svc, mock := newTestService(t, nil)
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(paymentID, uuid.New(), "1080", "upi", "completed", "TXNABC123XYZ9"))
		mock.ExpectQuery(`SELECT \* FROM "payment_details"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id"}))
		mock.ExpectExec(`UPDATE "payments" SET "payment_status"=\$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := svc.Refund(ctx, svc.db, paymentID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
