package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/otp-auth-service/internal/application/auth"
	"github.com/otp-auth-service/internal/domain"
	"github.com/otp-auth-service/internal/pkg/clientinfo"
	"github.com/otp-auth-service/internal/pkg/validate"
	"github.com/otp-auth-service/internal/transport/http/middleware"
)

const defaultLandingURL = "/dashboard"

// UserReader is what the verify page needs from the user store.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AuthHandler handles the OTP login flow and stack-aware logout.
type AuthHandler struct {
	svc         auth.Service
	users       UserReader
	sessions    middleware.SessionRepository
	secure      bool
	rememberTTL time.Duration
}

func NewAuthHandler(svc auth.Service, users UserReader, sessions middleware.SessionRepository, secure bool, rememberTTL time.Duration) *AuthHandler {
	return &AuthHandler{svc: svc, users: users, sessions: sessions, secure: secure, rememberTTL: rememberTTL}
}

type sendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// Entry serves the landing page descriptor, or sends an already
// authenticated browser straight to the app.
func (h *AuthHandler) Entry(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	if sess.Authenticated() {
		http.Redirect(w, r, defaultLandingURL, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{
		Page:      "auth/entry",
		Props:     map[string]interface{}{"providers": []string{domain.ProviderGoogle, domain.ProviderMicrosoft}},
		CSRFToken: sess.CSRFToken,
		Flash:     h.drainFlash(r.Context(), sess),
	})
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{
		Page:      "auth/login",
		CSRFToken: sess.CSRFToken,
		Flash:     h.drainFlash(r.Context(), sess),
	})
}

// VerifyPage serves the code-entry page. It accepts the mail deep-link query
// params and falls back to the session's pinned email; a session that has no
// matching challenge is sent back to the login page instead of an error.
func (h *AuthHandler) VerifyPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	email := r.URL.Query().Get("email")
	if email == "" {
		email = sess.OTPEmail
	}
	if sess.OTPEmail == "" || email != sess.OTPEmail {
		redirectWithFlash(w, r, h.sessions, sess, "error", "Your login session has expired, please request a new code.", "/auth/login")
		return
	}
	if _, err := h.users.GetByEmail(r.Context(), email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			redirectWithFlash(w, r, h.sessions, sess, "error", "Your login session has expired, please request a new code.", "/auth/login")
			return
		}
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{
		Page:      "auth/verify",
		Props:     map[string]interface{}{"email": email, "otp": r.URL.Query().Get("otp")},
		CSRFToken: sess.CSRFToken,
		Flash:     h.drainFlash(r.Context(), sess),
	})
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := validate.Fields(req); fields != nil {
		writeJSON(w, http.StatusUnprocessableEntity, FieldErrorEnvelope{Errors: fields, Email: req.Email})
		return
	}

	user, err := h.svc.RequestOTP(r.Context(), sess, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrTooManyRequests) {
			redirectWithFlash(w, r, h.sessions, sess, "error", "Please wait a moment before requesting another code.", "/auth/login")
			return
		}
		slog.Error("send-otp failed", "err", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	http.Redirect(w, r, "/auth/verify?email="+url.QueryEscape(user.Email), http.StatusSeeOther)
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := validate.Fields(req); fields != nil {
		writeJSON(w, http.StatusUnprocessableEntity, FieldErrorEnvelope{Errors: fields, Email: req.Email})
		return
	}

	user, err := h.svc.ResendOTP(r.Context(), sess, req.Email)
	switch {
	case err == nil:
		redirectWithFlash(w, r, h.sessions, sess, "success", "A new code is on its way.", "/auth/verify?email="+url.QueryEscape(user.Email))
	case errors.Is(err, domain.ErrSessionMismatch), errors.Is(err, domain.ErrNotFound):
		// One generic message for both — no session-state oracle.
		redirectWithFlash(w, r, h.sessions, sess, "error", "Your login session has expired, please request a new code.", "/auth/login")
	case errors.Is(err, domain.ErrTooManyRequests):
		redirectWithFlash(w, r, h.sessions, sess, "error", "Please wait a moment before requesting another code.", "/auth/verify?email="+url.QueryEscape(req.Email))
	default:
		slog.Error("resend-otp failed", "err", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := validate.Fields(req); fields != nil {
		writeJSON(w, http.StatusUnprocessableEntity, FieldErrorEnvelope{Errors: fields, Email: req.Email})
		return
	}

	// Cleared in memory only; the orchestrator persists the session on
	// success, so a failed attempt keeps the stored intended URL.
	target := sess.IntendedURL
	if target == "" {
		target = defaultLandingURL
	}
	sess.IntendedURL = ""

	res, err := h.svc.VerifyOTP(r.Context(), sess, req.Email, req.OTP, clientinfo.FromRequest(r))
	switch {
	case err == nil:
		if res.RememberToken != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     middleware.RememberCookie,
				Value:    res.RememberToken,
				Path:     "/",
				MaxAge:   int(h.rememberTTL.Seconds()),
				HttpOnly: true,
				Secure:   h.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	case errors.Is(err, domain.ErrSessionMismatch):
		redirectWithFlash(w, r, h.sessions, sess, "error", "Your login session has expired, please request a new code.", "/auth/login")
	case errors.Is(err, domain.ErrInvalidOTP):
		writeJSON(w, http.StatusUnprocessableEntity, FieldErrorEnvelope{
			Errors: map[string]string{"otp": "The code is invalid or has expired."},
			Email:  req.Email,
		})
	case errors.Is(err, domain.ErrNotFound):
		redirectWithFlash(w, r, h.sessions, sess, "error", "We could not verify your code, please try again.", "/auth/login")
	default:
		slog.Error("verify-otp failed", "err", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}

// Logout performs the stack-aware logout: switch to the oldest surviving
// account when one remains, otherwise destroy the session and hand the
// browser a clean one with a fresh CSRF token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := mustSession(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Logout(r.Context(), sess)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		slog.Error("logout failed", "err", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	if res.Next != nil {
		redirectWithFlash(w, r, h.sessions, sess, "success", "Switched to "+res.Next.Name+".", defaultLandingURL)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RememberCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	if _, err := middleware.IssueSession(r.Context(), w, h.sessions, h.secure); err != nil {
		slog.Warn("failed to issue replacement session", "err", err)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// drainFlash takes the pending flash off the session and persists the
// removal so it shows exactly once.
func (h *AuthHandler) drainFlash(ctx context.Context, sess *domain.Session) *domain.Flash {
	f := sess.TakeFlash()
	if f == nil {
		return nil
	}
	if err := h.sessions.Put(ctx, sess); err != nil {
		slog.Warn("failed to clear flash", "session_id", sess.SessionID, "err", err)
	}
	return f
}
