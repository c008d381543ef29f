package orders

import "errors"

var (
	ErrNotFound             = errors.New("orders: order not found")
	ErrAddressNotFound      = errors.New("orders: address not found")
	ErrEmptyCart            = errors.New("orders: cart is empty")
	ErrInsufficientStock    = errors.New("orders: insufficient stock")
	ErrPaymentNotSuccessful = errors.New("orders: payment not successful")
	ErrDuplicatePayment     = errors.New("orders: payment already processed")
	ErrInvalidOrFinalStatus = errors.New("orders: invalid or final order status")

	// ErrCommitFailed wraps any storage failure inside the atomic commit; the
	// whole unit of work was rolled back.
	ErrCommitFailed = errors.New("orders: commit failed")
)
