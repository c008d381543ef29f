package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/swiftcart/backend/internal/auth"
	"github.com/swiftcart/backend/internal/cart"
	"github.com/swiftcart/backend/internal/orders"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		code int
		kind string
	}{
		{orders.ErrNotFound, http.StatusNotFound, "NotFound"},
		{orders.ErrAddressNotFound, http.StatusNotFound, "NotFound"},
		{orders.ErrEmptyCart, http.StatusBadRequest, "EmptyCart"},
		{orders.ErrInsufficientStock, http.StatusBadRequest, "InsufficientStock"},
		{cart.ErrInsufficientStock, http.StatusBadRequest, "InsufficientStock"},
		{orders.ErrPaymentNotSuccessful, http.StatusBadRequest, "PaymentNotSuccessful"},
		{orders.ErrDuplicatePayment, http.StatusBadRequest, "DuplicatePayment"},
		{orders.ErrInvalidOrFinalStatus, http.StatusBadRequest, "InvalidOrFinalStatus"},
		{orders.ErrCommitFailed, http.StatusInternalServerError, "OrderCommitFailed"},
		{auth.ErrInvalidToken, http.StatusUnauthorized, "Unauthorized"},
		{cart.ErrInvalidQuantity, http.StatusBadRequest, "InvalidInput"},
	}
	for _, c := range cases {
		code, kind := classify(c.err)
		if code != c.code || kind != c.kind {
			t.Errorf("classify(%v) = %d %s, want %d %s", c.err, code, kind, c.code, c.kind)
		}
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	issuer := &auth.TokenIssuer{Secret: []byte("test-secret"), TTL: time.Hour}
	var seen auth.Principal
	h := Authenticate(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// no token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: code = %d", rec.Code)
	}

	// garbage token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/order", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: code = %d", rec.Code)
	}

	// valid token
	tok, err := issuer.Issue(auth.Principal{UserID: "user-1", Role: auth.RoleCustomer})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/order", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: code = %d", rec.Code)
	}
	if seen.UserID != "user-1" || seen.Role != auth.RoleCustomer {
		t.Fatalf("principal = %+v", seen)
	}
}

func TestRequireRole(t *testing.T) {
	issuer := &auth.TokenIssuer{Secret: []byte("test-secret"), TTL: time.Hour}
	h := Authenticate(issuer)(RequireRole(auth.RoleAdmin)(okHandler()))

	customer, _ := issuer.Issue(auth.Principal{UserID: "u1", Role: auth.RoleCustomer})
	admin, _ := issuer.Issue(auth.Principal{UserID: "u2", Role: auth.RoleAdmin})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/order/admin/all", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer: code = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/order/admin/all", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: code = %d, want 200", rec.Code)
	}
}
