package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/agegate/webapp/types"
	"github.com/golang-jwt/jwt/v5"
)

const sessionCookieName = "agegate_session"

type contextKey string

const contextUserKey contextKey = "user"

// SessionManager tracks the authenticated principal across requests through
// a signed cookie carrying the user ID.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl}
}

// Establish sets an authenticated session cookie for the given user.
func (m *SessionManager) Establish(w http.ResponseWriter, userID int) error {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear drops the session cookie unconditionally.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserID resolves the session cookie to a user ID. Missing, expired, or
// tampered cookies all fail.
func (m *SessionManager) UserID(r *http.Request) (int, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return 0, err
	}
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(cookie.Value, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, errors.New("invalid session")
	}
	id, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || id < 1 {
		return 0, errors.New("invalid session subject")
	}
	return id, nil
}

// withUser resolves the session to the current user, if any, and stores it in
// the request context. Anonymous requests pass through unchanged.
func (h *Handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.sessions.UserID(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := h.users.GetByID(r.Context(), id)
		if err != nil {
			// stale session for a row that no longer resolves
			h.sessions.Clear(w)
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), contextUserKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth redirects anonymous requests to the login page, preserving the
// original target in the next parameter.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFromContext(r.Context()) == nil {
			setFlash(w, "Please log in to access this page", flashError)
			redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userFromContext returns the authenticated user or nil.
func userFromContext(ctx context.Context) *types.User {
	user, _ := ctx.Value(contextUserKey).(*types.User)
	return user
}
