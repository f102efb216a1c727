package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/otp-auth-service/internal/domain"
	"github.com/otp-auth-service/internal/pkg/token"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionCookie is the name of the browser session cookie.
const SessionCookie = "session_id"

// SessionRepository is what the session middleware needs from the store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Session returns middleware that loads the durable session for the request
// cookie, creating a fresh anonymous session when there is none, and injects
// it into the request context.
func Session(repo SessionRepository, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *domain.Session
			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				sess, err = repo.Get(r.Context(), c.Value)
				if err != nil && !errors.Is(err, domain.ErrNotFound) {
					http.Error(w, `{"error":"session store unavailable"}`, http.StatusInternalServerError)
					return
				}
			}
			if sess == nil {
				var err error
				sess, err = IssueSession(r.Context(), w, repo, secure)
				if err != nil {
					http.Error(w, `{"error":"session store unavailable"}`, http.StatusInternalServerError)
					return
				}
			}
			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IssueSession creates and persists a fresh anonymous session with a new
// CSRF token and sets the session cookie. Also used on full logout, where
// the old session is destroyed and the browser gets a clean one.
func IssueSession(ctx context.Context, w http.ResponseWriter, repo SessionRepository, secure bool) (*domain.Session, error) {
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID: token.Must(),
		CSRFToken: token.Must(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Put(ctx, sess); err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.SessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// SessionFromContext extracts the durable session from the request context.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(SessionKey).(*domain.Session)
	return s, ok
}

// RequireAuth rejects requests whose session has no active account.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok || !sess.Authenticated() {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
