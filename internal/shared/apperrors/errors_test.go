package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	dbErr := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"auth", fmt.Errorf("create booking: %w", ErrAuthRequired), http.StatusUnauthorized},
		{"validation", Validation("seat_ids", "select at least one seat"), http.StatusBadRequest},
		{"coupon", InvalidCoupon("apply", nil), http.StatusUnprocessableEntity},
		{"persistence", Persistence("insert booking", dbErr), http.StatusInternalServerError},
		{"payment", PaymentFailed("insert payment", dbErr), http.StatusPaymentRequired},
		{"permission", ErrPermissionDenied, http.StatusForbidden},
		{"not found", NotFound("booking"), http.StatusNotFound},
		{"seat", SeatUnavailable("mark booked", nil), http.StatusConflict},
		{"unknown", dbErr, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestOpErrorKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := fmt.Errorf("submit: %w", PaymentFailed("insert payment", cause))

	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrPersistence)
	assert.Equal(t, "submit: insert payment: payment failed: duplicate key", err.Error())
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := Persistence("select coupons", errors.New("pq: relation does not exist"))
	assert.NotContains(t, PublicMessage(err), "pq")

	assert.Equal(t, "phone: must be 10 to 15 digits", PublicMessage(Validation("phone", "must be 10 to 15 digits")))
	assert.Equal(t, "booking not found", PublicMessage(fmt.Errorf("get: %w", NotFound("booking"))))
}

func TestInvalidCouponOutranksItsCause(t *testing.T) {
	err := InvalidCoupon("apply coupon", NotFound("coupon"))

	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(err))
	assert.Equal(t, "Invalid or expired coupon code", PublicMessage(err))
}
