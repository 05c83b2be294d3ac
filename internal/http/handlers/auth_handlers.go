package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gatherly/eventhub/internal/domain"
	"github.com/gatherly/eventhub/internal/http/response"
)

// Register creates an account and opens a session.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	user, token, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, user.ToSummary())
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	user, token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, user.ToSummary())
}

// GuestLogin opens a session for an anonymous throwaway account.
func (h *Handlers) GuestLogin(w http.ResponseWriter, r *http.Request) {
	user, token, err := h.authService.GuestLogin(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, user.ToSummary())
}

// CheckAuth reports who the session cookie belongs to. Any failure clears
// the cookie and responds 401.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.config.Auth.CookieName)
	if err != nil || cookie.Value == "" {
		response.Unauthorized(w, "Authentication required")
		return
	}

	user, err := h.authService.CheckAuth(r.Context(), cookie.Value)
	if err != nil {
		h.clearSessionCookie(w)
		response.Unauthorized(w, "Invalid or expired session")
		return
	}

	writeJSON(w, http.StatusOK, user.ToSummary())
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
