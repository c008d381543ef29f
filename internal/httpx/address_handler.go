package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swiftcart/backend/internal/users"
)

type AddressHandler struct {
	Users *users.Repo
}

func (h *AddressHandler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var a users.Address
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "invalid json")
		return
	}
	if a.Line1 == "" || a.City == "" || a.State == "" || a.PinCode == "" || a.Mobile == "" {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "missing fields")
		return
	}
	a.UserID = p.UserID
	if err := h.Users.CreateAddress(r.Context(), &a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AddressHandler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	as, err := h.Users.AddressesByUser(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": as})
}

func (h *AddressHandler) get(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	a, err := h.Users.AddressByID(r.Context(), chi.URLParam(r, "id"), p.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AddressHandler) update(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var a users.Address
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "invalid json")
		return
	}
	a.ID = chi.URLParam(r, "id")
	a.UserID = p.UserID
	if err := h.Users.UpdateAddress(r.Context(), &a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AddressHandler) remove(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	if err := h.Users.DeleteAddress(r.Context(), chi.URLParam(r, "id"), p.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "address deleted"})
}
