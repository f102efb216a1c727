package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/otp-auth-service/internal/domain"
	jwtinfra "github.com/otp-auth-service/internal/infrastructure/jwt"
)

// RememberCookie is the name of the persistent login cookie.
const RememberCookie = "remember_token"

// UserGetter loads a user by id for remember-me restoration.
type UserGetter interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Remember returns middleware that restores a login from the persistent
// remember-me cookie when the session is anonymous. An invalid or stale
// token clears the cookie and the request proceeds unauthenticated.
func Remember(provider *jwtinfra.Provider, users UserGetter, sessions SessionRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok || sess.Authenticated() {
				next.ServeHTTP(w, r)
				return
			}
			c, err := r.Cookie(RememberCookie)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := provider.Verify(c.Value)
			if err != nil {
				clearRememberCookie(w)
				next.ServeHTTP(w, r)
				return
			}
			user, err := users.Get(r.Context(), claims.UserID)
			if err != nil {
				clearRememberCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			sess.UserID = user.UserID
			sess.PushAccount(user.UserID)
			if err := sessions.Put(r.Context(), sess); err != nil {
				slog.Warn("failed to persist remembered login", "session_id", sess.SessionID, "err", err)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clearRememberCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
