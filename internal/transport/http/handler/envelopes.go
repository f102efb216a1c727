package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/otp-auth-service/internal/domain"
	"github.com/otp-auth-service/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FieldErrorEnvelope carries per-field validation messages with the original
// input echoed back (secrets excluded).
type FieldErrorEnvelope struct {
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors"`
	Email   string            `json:"email,omitempty"`
}

// PageEnvelope is the minimal JSON descriptor returned in place of a
// server-rendered page. Props carry whatever the page needs, the CSRF token
// included so the client can make state-changing requests.
type PageEnvelope struct {
	Page      string                 `json:"page"`
	Props     map[string]interface{} `json:"props,omitempty"`
	CSRFToken string                 `json:"csrf_token,omitempty"`
	Flash     *domain.Flash          `json:"flash,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// SessionSaver persists session mutations made at the handler level
// (flash messages, intended-URL bookkeeping).
type SessionSaver interface {
	Put(ctx context.Context, s *domain.Session) error
}

// redirectWithFlash stores a one-shot message on the session and issues a
// See Other redirect, preserving the POST-redirect-GET flow.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, sessions SessionSaver, sess *domain.Session, kind, message, location string) {
	sess.PutFlash(kind, message)
	if err := sessions.Put(r.Context(), sess); err != nil {
		slog.Warn("failed to persist flash", "session_id", sess.SessionID, "err", err)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// mustSession pulls the durable session injected by the session middleware.
func mustSession(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "no session on request")
		return nil, false
	}
	return sess, true
}
