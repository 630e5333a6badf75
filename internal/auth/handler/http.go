// Package handler exposes the auth endpoints: register, login, refresh
// rotation, and logout.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"ticketdesk/backend/internal/auth/service"
	"ticketdesk/backend/internal/platform/web"
	"ticketdesk/backend/internal/security"
	"ticketdesk/backend/internal/server/middleware"
)

// LoginLimiter throttles login attempts per client. Nil disables throttling.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Handler serves the /auth routes.
type Handler struct {
	svc     *service.AuthService
	tokens  *security.TokenProvider
	limiter LoginLimiter
}

// NewHandler returns an auth HTTP handler. limiter may be nil to disable the
// login throttle.
func NewHandler(svc *service.AuthService, tokens *security.TokenProvider, limiter LoginLimiter) *Handler {
	return &Handler{svc: svc, tokens: tokens, limiter: limiter}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates a user with role REQUESTER and returns a token pair.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pair, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Login authenticates with email and password and returns a token pair.
// Attempts are throttled per client IP when a limiter is configured.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.allowLogin(r, req.Email) {
		web.WriteError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}
	pair, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh rotates the presented refresh token. The token authenticates the
// call on its own; no access token is involved.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, presented, ok := h.refreshIdentity(w, r)
	if !ok {
		return
	}
	pair, err := h.svc.Refresh(r.Context(), userID, sessionID, presented)
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the session named by the presented refresh token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, _, ok := h.refreshIdentity(w, r)
	if !ok {
		return
	}
	if err := h.svc.Logout(r.Context(), userID, sessionID); err != nil {
		h.writeError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// refreshIdentity validates the Bearer refresh token and returns its claims
// plus the raw token. Writes 401 and returns ok=false on any failure.
func (h *Handler) refreshIdentity(w http.ResponseWriter, r *http.Request) (userID, sessionID, presented string, ok bool) {
	presented = middleware.ExtractBearer(r)
	if presented == "" {
		web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return "", "", "", false
	}
	userID, sessionID, err := h.tokens.ValidateRefresh(presented)
	if err != nil {
		web.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return "", "", "", false
	}
	return userID, sessionID, presented, true
}

// allowLogin consults the limiter keyed by client IP and by target email; the
// attempt must pass both windows. Fails open: a limiter error lets the attempt
// through rather than locking everyone out.
func (h *Handler) allowLogin(r *http.Request, email string) bool {
	if h.limiter == nil {
		return true
	}
	keys := []string{"login:ip:" + middleware.GetClientIP(r.Context())}
	if email != "" {
		keys = append(keys, "login:email:"+email)
	}
	for _, key := range keys {
		allowed, err := h.limiter.Allow(r.Context(), key)
		if err != nil {
			log.Printf("ratelimit: allow failed: %v", err)
			continue
		}
		if !allowed {
			return false
		}
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		web.WriteError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		web.WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrInvalidSession):
		web.WriteError(w, http.StatusUnauthorized, "invalid or expired session")
	case errors.Is(err, service.ErrInvalidInput):
		web.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		web.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
