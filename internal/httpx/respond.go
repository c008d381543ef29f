package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/swiftcart/backend/internal/auth"
	"github.com/swiftcart/backend/internal/cart"
	"github.com/swiftcart/backend/internal/catalog"
	"github.com/swiftcart/backend/internal/orders"
	"github.com/swiftcart/backend/internal/reviews"
	"github.com/swiftcart/backend/internal/users"
)

type apiError struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code, kind := classify(err)
	writeJSON(w, code, apiError{Kind: kind, Error: err.Error()})
}

func writeKind(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, apiError{Kind: kind, Error: msg})
}

// classify maps domain errors onto the client-visible taxonomy.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, orders.ErrAddressNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, reviews.ErrNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, orders.ErrEmptyCart):
		return http.StatusBadRequest, "EmptyCart"
	case errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, cart.ErrInsufficientStock):
		return http.StatusBadRequest, "InsufficientStock"
	case errors.Is(err, orders.ErrPaymentNotSuccessful):
		return http.StatusBadRequest, "PaymentNotSuccessful"
	case errors.Is(err, orders.ErrDuplicatePayment):
		return http.StatusBadRequest, "DuplicatePayment"
	case errors.Is(err, orders.ErrInvalidOrFinalStatus):
		return http.StatusBadRequest, "InvalidOrFinalStatus"
	case errors.Is(err, orders.ErrCommitFailed):
		return http.StatusInternalServerError, "OrderCommitFailed"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, catalog.ErrSlugTaken),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, reviews.ErrInvalidRating),
		errors.Is(err, reviews.ErrAlreadyReviewed):
		return http.StatusBadRequest, "InvalidInput"
	default:
		return http.StatusInternalServerError, "Internal"
	}
}
