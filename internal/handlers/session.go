package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/arshmeetsingh/lego-collection/internal/models"
)

type contextKey int

const sessionUserKey contextKey = iota

// SessionUser returns the logged-in user stored on ctx by LoadSession, or nil.
func SessionUser(ctx context.Context) *models.SessionUser {
	user, _ := ctx.Value(sessionUserKey).(*models.SessionUser)
	return user
}

// WithSessionUser returns a copy of ctx carrying user.
func WithSessionUser(ctx context.Context, user *models.SessionUser) context.Context {
	return context.WithValue(ctx, sessionUserKey, user)
}

// LoadSession resolves the session cookie and extends the session. Requests
// without a valid session continue anonymously.
func (h *Handler) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(h.cookie.Name)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, ok, err := h.sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			h.log.Warn("loading session", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			h.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		if err := h.sessions.Touch(r.Context(), cookie.Value); err != nil {
			h.log.Warn("extending session", zap.String("userName", user.UserName), zap.Error(err))
		}

		next.ServeHTTP(w, r.WithContext(WithSessionUser(r.Context(), user)))
	})
}

// EnsureLogin redirects anonymous requests to the login page.
func (h *Handler) EnsureLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionUser(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	cookie := h.sessionCookie("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}
