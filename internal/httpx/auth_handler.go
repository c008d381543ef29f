package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/swiftcart/backend/internal/auth"
	"github.com/swiftcart/backend/internal/users"
)

type AuthHandler struct {
	Users  *users.Repo
	Tokens *auth.TokenIssuer
}

type registerReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "invalid json")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "missing fields")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := h.Users.CreateUser(r.Context(), req.Email, hash, req.FullName, req.Mobile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// me returns the caller's profile together with their order history.
func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	u, err := h.Users.UserByID(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	history, err := h.Users.OrderHistory(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "orderHistory": history})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "invalid json")
		return
	}
	u, err := h.Users.UserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeKind(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}
	token, err := h.Tokens.Issue(auth.Principal{UserID: u.ID, Role: u.Role})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResp{Token: token, User: u})
}
