package receipts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travelhub/internal/bookings"
	"travelhub/internal/catalog"
	"travelhub/internal/payments"
	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/session"
	"travelhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	booking *bookings.Booking
}

func (s *stubSource) GetAny(_ context.Context, id uuid.UUID) (*bookings.Booking, error) {
	if s.booking == nil || s.booking.ID != id {
		return nil, apperrors.NotFound("booking")
	}
	return s.booking, nil
}

type stubItems struct{}

func (stubItems) Lookup(_ context.Context, kind catalog.Kind, id uuid.UUID) (*catalog.Item, error) {
	return &catalog.Item{Kind: kind, ID: id, Title: "Coldplay Live"}, nil
}

func paidBooking(owner uuid.UUID) *bookings.Booking {
	seats := "A1,A2"
	code := "SAVE10"
	last4 := "1111"
	travel := time.Date(2026, 12, 1, 19, 0, 0, 0, time.UTC)
	id := uuid.New()
	return &bookings.Booking{
		ID: id, UserID: owner, BookingType: bookings.TypeEvent, ItemID: uuid.New(),
		SeatNumber: &seats, BookingDate: time.Now(), TravelDate: &travel,
		TicketStatus: bookings.StatusBooked, Subtotal: decimal.NewFromInt(1200),
		TotalAmount: decimal.NewFromInt(1080), CouponCode: &code,
		Payments: []payments.Payment{{
			ID: uuid.New(), BookingID: id, Amount: decimal.NewFromInt(1080),
			PaymentMethod: payments.MethodCreditCard, PaymentStatus: payments.StatusCompleted,
			TransactionID: "TXNABCDEF1234",
			Detail:        &payments.PaymentDetail{CardLastFour: &last4},
		}},
	}
}

func TestDocumentsAccess(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	b := paidBooking(owner)
	svc := NewService(&stubSource{booking: b}, stubItems{}, logger.Discard())

	t.Run("owner gets ticket", func(t *testing.T) {
		doc, err := svc.Ticket(ctx, &session.Session{UserID: owner}, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(doc.Content[:4]))
		assert.Contains(t, doc.Filename, "TICKET_")
	})

	t.Run("admin gets receipt", func(t *testing.T) {
		doc, err := svc.Receipt(ctx, &session.Session{UserID: uuid.New(), Role: "admin"}, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(doc.Content[:4]))
	})

	t.Run("stranger sees not found", func(t *testing.T) {
		_, err := svc.Receipt(ctx, &session.Session{UserID: uuid.New(), Role: "user"}, b.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.Ticket(ctx, nil, b.ID)
		assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	})
}

func TestReceiptNeedsPayment(t *testing.T) {
	owner := uuid.New()
	b := paidBooking(owner)
	b.Payments = nil
	svc := NewService(&stubSource{booking: b}, stubItems{}, logger.Discard())

	_, err := svc.Receipt(context.Background(), &session.Session{UserID: owner}, b.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	doc, err := svc.Ticket(context.Background(), &session.Session{UserID: owner}, b.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Content)
}

func TestMethodLabel(t *testing.T) {
	b := paidBooking(uuid.New())
	assert.Equal(t, "credit card ending 1111", methodLabel(b.Payment()))
}

func TestControllerServesPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	owner := uuid.New()
	b := paidBooking(owner)
	c := NewController(NewService(&stubSource{booking: b}, stubItems{}, logger.Discard()))

	r := gin.New()
	r.GET("/bookings/:id/receipt", func(ctx *gin.Context) {
		session.Attach(ctx, &session.Session{UserID: owner})
		ctx.Next()
	}, c.GetReceipt)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/bookings/"+b.ID.String()+"/receipt", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "RECEIPT_")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings/not-a-uuid/receipt", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
