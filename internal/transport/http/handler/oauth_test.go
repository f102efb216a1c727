package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/otp-auth-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOAuthBegin_RedirectsToProvider(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("BeginOAuth", mock.Anything, mock.Anything, "google").
		Return("https://accounts.google.com/o/oauth2/auth?state=abc", nil)
	h := NewOAuthHandler(svc, &mockSessions{})

	r := withSession(httptest.NewRequest(http.MethodGet, "/auth/google", nil), &domain.Session{SessionID: "s1"})
	rr := httptest.NewRecorder()
	h.Begin("google")(rr, r)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?state=abc", rr.Header().Get("Location"))
}

func TestOAuthBegin_UnknownProvider(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("BeginOAuth", mock.Anything, mock.Anything, "github").
		Return("", fmt.Errorf("unknown provider %q: %w", "github", domain.ErrNotFound))
	h := NewOAuthHandler(svc, &mockSessions{})

	r := withSession(httptest.NewRequest(http.MethodGet, "/auth/github", nil), &domain.Session{SessionID: "s1"})
	rr := httptest.NewRecorder()
	h.Begin("github")(rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOAuthCallback_Success_RedirectsToApp(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("OAuthCallback", mock.Anything, mock.Anything, "google", "state-1", "code-1", mock.Anything).
		Return(&domain.User{UserID: "u1"}, nil)
	h := NewOAuthHandler(svc, &mockSessions{})

	sess := &domain.Session{SessionID: "s1", OAuthState: "state-1"}
	r := withSession(httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=state-1&code=code-1", nil), sess)
	rr := httptest.NewRecorder()
	h.Callback("google")(rr, r)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, defaultLandingURL, rr.Header().Get("Location"))
}

func TestOAuthCallback_DeniedConsent_RedirectsToLogin(t *testing.T) {
	svc := &mockAuthSvc{}
	sessions := &mockSessions{}
	sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	h := NewOAuthHandler(svc, sessions)

	sess := &domain.Session{SessionID: "s1"}
	r := withSession(httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied", nil), sess)
	rr := httptest.NewRecorder()
	h.Callback("google")(rr, r)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
	require.NotNil(t, sess.Flash)
	assert.Equal(t, "error", sess.Flash.Kind)
	svc.AssertNotCalled(t, "OAuthCallback", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOAuthCallback_ProviderFailure_GenericMessage(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("OAuthCallback", mock.Anything, mock.Anything, "microsoft", "state-1", "bad", mock.Anything).
		Return(nil, fmt.Errorf("token exchange: %w", domain.ErrOAuthProvider))
	sessions := &mockSessions{}
	sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	h := NewOAuthHandler(svc, sessions)

	sess := &domain.Session{SessionID: "s1", OAuthState: "state-1"}
	r := withSession(httptest.NewRequest(http.MethodGet, "/auth/microsoft/callback?state=state-1&code=bad", nil), sess)
	rr := httptest.NewRecorder()
	h.Callback("microsoft")(rr, r)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
	assert.NotContains(t, sess.Flash.Message, "token exchange", "internal detail stays in logs")
}
