package api

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/foxzi/listdash/internal/dashboard"
	"github.com/foxzi/listdash/internal/metrics"
	"github.com/foxzi/listdash/internal/ratelimit"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"bytes", ww.BytesWritten(),
			"remote_addr", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// authMiddleware checks API key authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.API.APIKey == "" {
			// No API key configured, allow all
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			auth = r.Header.Get("X-API-Key")
		}
		auth = strings.TrimPrefix(auth, "Bearer ")

		if auth != s.config.API.APIKey {
			s.logger.Warn("unauthorized API request",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			sendError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// basicAuthMiddleware authenticates dashboard users against the configured accounts
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="listdash"`)
			sendError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		attempt := ratelimit.Request{IP: clientIP(r), Account: strings.ToLower(email)}
		if res := s.logins.Check(attempt); !res.Allowed {
			metrics.IncLoginThrottled(string(res.DeniedBy))
			s.logger.Warn("dashboard login throttled",
				"email", email,
				"remote_addr", r.RemoteAddr,
				"level", res.DeniedBy,
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			sendError(w, http.StatusTooManyRequests, "Too many failed logins")
			return
		}

		account := s.config.FindUser(email)
		if account == nil || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
			s.logins.Fail(attempt)
			s.logger.Warn("dashboard login failed", "email", email, "remote_addr", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Basic realm="listdash"`)
			sendError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.logins.Reset(attempt)

		u := dashboard.User{Email: account.Email, Superuser: account.Superuser}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUser, u)))
	})
}

// csrfMiddleware rejects state-changing requests without a valid token
func (s *Server) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-CSRFToken")
		if token == "" {
			if err := r.ParseForm(); err != nil {
				sendError(w, http.StatusBadRequest, "Invalid form")
				return
			}
			token = r.PostForm.Get(fieldCSRFToken)
		}

		if !s.csrf.Valid(userFrom(r).Email, token) {
			metrics.IncCSRFRejected()
			s.logger.Warn("CSRF token rejected", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			sendError(w, http.StatusForbidden, "Invalid CSRF token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port RealIP leaves in place when no proxy header is set
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// userFrom returns the authenticated dashboard user
func userFrom(r *http.Request) dashboard.User {
	u, _ := r.Context().Value(ctxKeyUser).(dashboard.User)
	return u
}
