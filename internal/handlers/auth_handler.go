package handlers

import (
	"errors"
	"net/http"

	"helpdetective/internal/logger"
	"helpdetective/internal/security"
	"helpdetective/internal/service"
)

// AuthHandler handles the clinic password gate
type AuthHandler struct {
	authService *service.AuthService
	registry    *WorkflowRegistry
	limiter     *security.RateLimiter
	log         *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, registry *WorkflowRegistry, limiter *security.RateLimiter, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		registry:    registry,
		limiter:     limiter,
		log:         log,
	}
}

// Login checks the clinic password and sets the auth cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.authService.Enabled() {
		respondJSON(w, http.StatusOK, map[string]interface{}{"authenticated": true, "auth_required": false})
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	token, expires, err := h.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Warn("Failed login", "client_ip", security.GetClientIP(r))
			respondWithError(w, h.log, http.StatusUnauthorized, "Invalid password", "", nil)
			return
		}
		respondServiceError(w, h.log, "Login failed", err)
		return
	}

	h.limiter.Reset(security.GetClientIP(r))
	http.SetCookie(w, security.CreateSessionCookie(r, AuthCookieName, token, expires))
	respondJSON(w, http.StatusOK, map[string]interface{}{"authenticated": true, "expires_at": expires})
}

// Logout clears the auth cookie and discards the caller's workflow
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(WorkflowCookieName); err == nil {
		h.registry.Remove(cookie.Value)
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, WorkflowCookieName))
	http.SetCookie(w, security.CreateDeleteCookie(r, AuthCookieName))
	w.WriteHeader(http.StatusNoContent)
}
