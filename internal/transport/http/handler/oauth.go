package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/otp-auth-service/internal/application/auth"
	"github.com/otp-auth-service/internal/domain"
	"github.com/otp-auth-service/internal/pkg/clientinfo"
	"github.com/otp-auth-service/internal/transport/http/middleware"
)

// OAuthHandler handles the federated login redirect/callback pairs.
type OAuthHandler struct {
	svc      auth.Service
	sessions middleware.SessionRepository
}

func NewOAuthHandler(svc auth.Service, sessions middleware.SessionRepository) *OAuthHandler {
	return &OAuthHandler{svc: svc, sessions: sessions}
}

// Begin returns the redirect handler for the named provider.
func (h *OAuthHandler) Begin(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mustSession(w, r)
		if !ok {
			return
		}
		redirect, err := h.svc.BeginOAuth(r.Context(), sess, provider)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "unknown provider")
				return
			}
			slog.Error("oauth begin failed", "provider", provider, "err", err)
			writeError(w, http.StatusInternalServerError, "something went wrong")
			return
		}
		http.Redirect(w, r, redirect, http.StatusFound)
	}
}

// Callback returns the callback handler for the named provider. Every
// provider-side failure lands on the login page with one generic message;
// details stay in the logs.
func (h *OAuthHandler) Callback(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mustSession(w, r)
		if !ok {
			return
		}

		if errParam := r.URL.Query().Get("error"); errParam != "" {
			slog.Warn("oauth consent denied", "provider", provider, "error", errParam)
			redirectWithFlash(w, r, h.sessions, sess, "error", "We could not sign you in, please try again.", "/auth/login")
			return
		}

		target := sess.IntendedURL
		if target == "" {
			target = defaultLandingURL
		}
		sess.IntendedURL = ""

		_, err := h.svc.OAuthCallback(r.Context(), sess, provider,
			r.URL.Query().Get("state"), r.URL.Query().Get("code"), clientinfo.FromRequest(r))
		switch {
		case err == nil:
			http.Redirect(w, r, target, http.StatusSeeOther)
		case errors.Is(err, domain.ErrOAuthProvider), errors.Is(err, domain.ErrNotFound):
			slog.Warn("oauth callback rejected", "provider", provider, "err", err)
			redirectWithFlash(w, r, h.sessions, sess, "error", "We could not sign you in, please try again.", "/auth/login")
		default:
			slog.Error("oauth callback failed", "provider", provider, "err", err)
			writeError(w, http.StatusInternalServerError, "something went wrong")
		}
	}
}
