// Package apperrors is the error taxonomy shared by every booking, payment and admin operation.
//
// Callers test kinds with errors.Is against the sentinels; the typed errors below
// carry the detail that ends up in the response envelope.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthRequired     = errors.New("authentication required")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidCoupon    = errors.New("invalid coupon")
	ErrPersistence      = errors.New("persistence failure")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrSeatUnavailable  = errors.New("seat unavailable")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return ErrValidation.Error()
	}
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return ErrNotFound.Error()
	}
	return e.Resource + " not found"
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// OpError ties a failure kind to the operation that raised it and the underlying cause.
type OpError struct {
	Kind error
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func Persistence(op string, err error) error {
	return &OpError{Kind: ErrPersistence, Op: op, Err: err}
}

func PaymentFailed(op string, err error) error {
	return &OpError{Kind: ErrPaymentFailed, Op: op, Err: err}
}

func InvalidCoupon(op string, err error) error {
	return &OpError{Kind: ErrInvalidCoupon, Op: op, Err: err}
}

func SeatUnavailable(op string, err error) error {
	return &OpError{Kind: ErrSeatUnavailable, Op: op, Err: err}
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCoupon):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSeatUnavailable):
		return http.StatusConflict
	case errors.Is(err, ErrPaymentFailed):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to return to a client. Store failures and coupon
// reasons are collapsed so nothing internal leaks.
func PublicMessage(err error) string {
	var ve *ValidationError
	var nf *NotFoundError
	switch {
	case errors.Is(err, ErrInvalidCoupon):
		return "Invalid or expired coupon code"
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &nf):
		return nf.Error()
	case errors.Is(err, ErrAuthRequired):
		return "Please sign in to continue"
	case errors.Is(err, ErrPermissionDenied):
		return "You do not have permission to perform this action"
	case errors.Is(err, ErrSeatUnavailable):
		return "One or more selected seats are no longer available"
	case errors.Is(err, ErrPaymentFailed):
		return "Payment could not be recorded, please try again"
	default:
		return "Something went wrong, please try again"
	}
}
