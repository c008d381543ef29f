package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swiftcart/backend/internal/cart"
)

type CartHandler struct {
	Cart *cart.Repo
}

type addToCartReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req addToCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "invalid json")
		return
	}
	if req.ProductID == "" {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "productId required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	it, err := h.Cart.Add(r.Context(), p.UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	lines, err := h.Cart.Lines(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	var total int64
	for _, l := range lines {
		total += l.SubtotalCents()
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": lines, "totalCents": total})
}

type updateCartReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req updateCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "invalid json")
		return
	}
	it, err := h.Cart.UpdateQuantity(r.Context(), p.UserID, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	if err := h.Cart.Remove(r.Context(), p.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item removed"})
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	if err := h.Cart.Clear(r.Context(), p.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
