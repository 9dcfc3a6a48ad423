package handlers

import (
	"net/http"
	"time"

	"helpdetective/internal/logger"
	"helpdetective/internal/security"
	"helpdetective/internal/service"
)

// Middleware holds dependencies for middleware
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRFGenerator
	limiter     *security.RateLimiter
	log         *logger.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, csrf *security.CSRFGenerator, limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		limiter:     limiter,
		log:         log,
	}
}

// RequireAuth rejects requests without a valid clinician token. It passes
// everything through when no clinic password is configured.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.authService.Enabled() {
			next(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookieName)
		if err != nil {
			respondWithError(w, m.log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}
		if err := m.authService.Verify(cookie.Value); err != nil {
			m.log.Debug("Rejected clinician token", "error", err, "path", r.URL.Path)
			http.SetCookie(w, security.CreateDeleteCookie(r, AuthCookieName))
			respondWithError(w, m.log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		next(w, r)
	}
}

// CSRFProtect requires the X-CSRF-Token header to match the caller's workflow cookie
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next(w, r)
			return
		}

		cookie, err := r.Cookie(WorkflowCookieName)
		if err != nil || !m.csrf.ValidateToken(cookie.Value, r.Header.Get(CSRFHeaderName)) {
			m.log.Warn("CSRF check failed", "path", r.URL.Path, "client_ip", security.GetClientIP(r))
			respondWithError(w, m.log, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}

		next(w, r)
	}
}

// RateLimit applies the login limiter keyed by client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			m.log.Warn("Rate limit exceeded", "client_ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondWithError(w, m.log, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging logs method, path, status and duration of each request
func Logging(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
