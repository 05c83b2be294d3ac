package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherly/eventhub/internal/domain"
	"github.com/gatherly/eventhub/internal/http/response"
	"github.com/gatherly/eventhub/internal/realtime"
	"github.com/gatherly/eventhub/internal/service"
	"github.com/gatherly/eventhub/pkg/auth"
	"github.com/gatherly/eventhub/pkg/config"
	"github.com/gatherly/eventhub/pkg/logger"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

type Handlers struct {
	authService  service.AuthService
	eventService service.EventService
	hub          *realtime.Hub
	config       *config.Config
}

func New(authService service.AuthService, eventService service.EventService, hub *realtime.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		authService:  authService,
		eventService: eventService,
		hub:          hub,
		config:       cfg,
	}
}

// RequireSession authenticates the request from the session cookie. Any
// verification failure clears the cookie so clients do not retry a dead token.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(h.config.Auth.CookieName)
		if err != nil || cookie.Value == "" {
			response.Unauthorized(w, "Authentication required")
			return
		}

		claims, err := auth.Parse(cookie.Value, h.config.Auth.JWTSecret)
		if err != nil {
			h.clearSessionCookie(w)
			response.Unauthorized(w, "Invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), ctxClaims, claims)
		ctx = context.WithValue(ctx, logger.UserIDKey, claims.Sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(ctxClaims).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.Auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.Server.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.Server.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeDomainError maps service-layer failures onto the HTTP error taxonomy.
func (h *Handlers) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		response.WriteError(w, http.StatusBadRequest, verr.Error(), response.CodeInvalidInput)
	case errors.Is(err, domain.ErrUserExists):
		response.Conflict(w, "User already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid credentials")
	case errors.Is(err, domain.ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, domain.ErrEventNotFound):
		response.NotFound(w, "Event not found")
	case errors.Is(err, domain.ErrNotOwner):
		response.Forbidden(w, "Not authorized")
	case errors.Is(err, domain.ErrAlreadyAttending):
		response.Conflict(w, "Already attending this event")
	case errors.Is(err, domain.ErrEventFull):
		response.WriteError(w, http.StatusConflict, "Event is full", response.CodeEventFull)
	case errors.Is(err, auth.ErrInvalidToken):
		response.Unauthorized(w, "Invalid or expired session")
	default:
		logger.ErrorContext(r.Context(), "request failed", "error", err,
			"method", r.Method, "path", r.URL.Path)
		response.InternalError(w, "Server error")
	}
}
