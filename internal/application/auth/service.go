package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/otp-auth-service/internal/application/notify"
	"github.com/otp-auth-service/internal/application/otp"
	"github.com/otp-auth-service/internal/domain"
	"github.com/otp-auth-service/internal/infrastructure/oauth"
	"github.com/otp-auth-service/internal/pkg/clientinfo"
	"github.com/otp-auth-service/internal/pkg/id"
	"github.com/otp-auth-service/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the minimal interface the orchestrator requires from the user store.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// EnsureByEmail atomically finds or creates a user; build runs only when
	// the email is unclaimed. Returns (user, created, err).
	EnsureByEmail(ctx context.Context, email string, build func() *domain.User) (*domain.User, bool, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// SessionStore is the minimal interface the orchestrator requires from the session store.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, sessionID string) error
}

// Cooldown throttles OTP sends per email. A nil Cooldown allows everything.
type Cooldown interface {
	Allow(email string) bool
}

// RememberSigner issues the persistent "remember me" login token.
type RememberSigner interface {
	Sign(userID, sessionID string) (string, error)
}

// AvatarMirror copies a provider-hosted avatar into our own storage.
type AvatarMirror interface {
	Mirror(ctx context.Context, userID, srcURL string) (string, error)
}

// VerifyResult is returned on successful OTP verification.
type VerifyResult struct {
	User          *domain.User
	RememberToken string
}

// LogoutResult describes what a stack-aware logout did: either Next is the
// account now active, or Invalidated reports the session was destroyed.
type LogoutResult struct {
	Next        *domain.User
	Invalidated bool
}

// Service is the authentication state machine. Per session it moves between
// Anonymous (no pinned email, no active user), Challenged (otp_email pinned)
// and Authenticated (active user set); logout steps back through the
// account stack before fully invalidating.
type Service interface {
	RequestOTP(ctx context.Context, sess *domain.Session, email string) (*domain.User, error)
	ResendOTP(ctx context.Context, sess *domain.Session, email string) (*domain.User, error)
	VerifyOTP(ctx context.Context, sess *domain.Session, email, code string, info clientinfo.Info) (*VerifyResult, error)
	BeginOAuth(ctx context.Context, sess *domain.Session, provider string) (string, error)
	OAuthCallback(ctx context.Context, sess *domain.Session, provider, state, code string, info clientinfo.Info) (*domain.User, error)
	Logout(ctx context.Context, sess *domain.Session) (*LogoutResult, error)
}

// ServiceDeps holds everything the orchestrator needs. Cooldown,
// RememberSigner and Avatars are optional.
type ServiceDeps struct {
	UserRepo       UserStore
	SessionRepo    SessionStore
	OTPEngine      otp.Engine
	Dispatcher     notify.Dispatcher
	Providers      []oauth.Provider
	Cooldown       Cooldown
	RememberSigner RememberSigner
	Avatars        AvatarMirror
	BaseURL        string
}

type service struct {
	userRepo    UserStore
	sessionRepo SessionStore
	otpEngine   otp.Engine
	dispatcher  notify.Dispatcher
	providers   map[string]oauth.Provider
	cooldown    Cooldown
	remember    RememberSigner
	avatars     AvatarMirror
	baseURL     string
}

func NewService(deps ServiceDeps) Service {
	providers := make(map[string]oauth.Provider, len(deps.Providers))
	for _, p := range deps.Providers {
		providers[p.Name()] = p
	}
	return &service{
		userRepo:    deps.UserRepo,
		sessionRepo: deps.SessionRepo,
		otpEngine:   deps.OTPEngine,
		dispatcher:  deps.Dispatcher,
		providers:   providers,
		cooldown:    deps.Cooldown,
		remember:    deps.RememberSigner,
		avatars:     deps.Avatars,
		baseURL:     deps.BaseURL,
	}
}

func (s *service) RequestOTP(ctx context.Context, sess *domain.Session, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	if s.cooldown != nil && !s.cooldown.Allow(email) {
		return nil, fmt.Errorf("otp cooldown active: %w", domain.ErrTooManyRequests)
	}

	user, _, err := s.userRepo.EnsureByEmail(ctx, email, func() *domain.User {
		return newOTPUser(email)
	})
	if err != nil {
		return nil, err
	}

	if err := s.issueAndSend(ctx, user); err != nil {
		return nil, err
	}

	sess.OTPEmail = email
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) ResendOTP(ctx context.Context, sess *domain.Session, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	if sess.OTPEmail == "" || sess.OTPEmail != email {
		return nil, fmt.Errorf("email does not match the current challenge: %w", domain.ErrSessionMismatch)
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if s.cooldown != nil && !s.cooldown.Allow(email) {
		return nil, fmt.Errorf("otp cooldown active: %w", domain.ErrTooManyRequests)
	}
	if err := s.issueAndSend(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) VerifyOTP(ctx context.Context, sess *domain.Session, email, code string, info clientinfo.Info) (*VerifyResult, error) {
	email = normalizeEmail(email)
	if sess.OTPEmail == "" || sess.OTPEmail != email {
		return nil, fmt.Errorf("email does not match the current challenge: %w", domain.ErrSessionMismatch)
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.otpEngine.Consume(ctx, user.UserID, code); err != nil {
		return nil, err
	}

	sess.UserID = user.UserID
	sess.PushAccount(user.UserID)
	sess.OTPEmail = ""
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}

	result := &VerifyResult{User: user}
	if s.remember != nil {
		if result.RememberToken, err = s.remember.Sign(user.UserID, sess.SessionID); err != nil {
			slog.Warn("failed to sign remember token", "user_id", user.UserID, "err", err)
			result.RememberToken = ""
		}
	}

	if err := s.dispatcher.SendSecurityAlert(ctx, user, "otp", info); err != nil {
		slog.Warn("failed to send security alert", "user_id", user.UserID, "err", err)
	}
	return result, nil
}

func (s *service) BeginOAuth(ctx context.Context, sess *domain.Session, provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("unknown provider %q: %w", provider, domain.ErrNotFound)
	}
	state, err := token.New()
	if err != nil {
		return "", err
	}
	sess.OAuthState = state
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return "", err
	}
	return p.RedirectURL(state), nil
}

func (s *service) OAuthCallback(ctx context.Context, sess *domain.Session, provider, state, code string, info clientinfo.Info) (*domain.User, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q: %w", provider, domain.ErrNotFound)
	}
	if state == "" || state != sess.OAuthState {
		return nil, fmt.Errorf("state mismatch: %w", domain.ErrOAuthProvider)
	}
	sess.OAuthState = ""

	// Nothing is created or mutated until the provider has proven identity.
	profile, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(profile.Email)
	user, created, err := s.userRepo.EnsureByEmail(ctx, email, func() *domain.User {
		return newProviderUser(email, provider, profile)
	})
	if err != nil {
		return nil, err
	}
	if !created {
		if err := s.adoptProviderIdentity(ctx, user, provider, profile); err != nil {
			return nil, err
		}
	}

	s.mirrorAvatar(ctx, user, profile.AvatarURL)

	if created {
		if err := s.dispatcher.SendWelcome(ctx, user); err != nil {
			slog.Warn("failed to send welcome mail", "user_id", user.UserID, "err", err)
		}
	}

	// The provider already proved identity — log in directly, no OTP step.
	sess.UserID = user.UserID
	sess.PushAccount(user.UserID)
	sess.OTPEmail = ""
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}

	if err := s.dispatcher.SendSecurityAlert(ctx, user, provider, info); err != nil {
		slog.Warn("failed to send security alert", "user_id", user.UserID, "err", err)
	}
	return user, nil
}

func (s *service) Logout(ctx context.Context, sess *domain.Session) (*LogoutResult, error) {
	if !sess.Authenticated() {
		return nil, fmt.Errorf("no active account: %w", domain.ErrUnauthorized)
	}
	sess.RemoveAccount(sess.UserID)
	sess.UserID = ""

	if nextID, ok := sess.NextAccount(); ok {
		next, err := s.userRepo.Get(ctx, nextID)
		if err == nil {
			// The browser already proved control of this session; switch to
			// the oldest surviving account without re-checking credentials.
			sess.UserID = nextID
			if err := s.sessionRepo.Put(ctx, sess); err != nil {
				return nil, err
			}
			return &LogoutResult{Next: next}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// The next account no longer exists — treat the stack as empty.
	}

	if err := s.sessionRepo.Delete(ctx, sess.SessionID); err != nil {
		return nil, err
	}
	return &LogoutResult{Invalidated: true}, nil
}

func (s *service) issueAndSend(ctx context.Context, user *domain.User) error {
	code, err := s.otpEngine.Issue(ctx, user.UserID)
	if err != nil {
		return err
	}
	return s.dispatcher.SendOTP(ctx, user, code, s.verifyURL(user.Email, code))
}

// verifyURL builds the mail deep-link with the code embedded. The link only
// ever travels over the trusted mail channel.
func (s *service) verifyURL(email, code string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("otp", code)
	return s.baseURL + "/auth/verify?" + q.Encode()
}

func (s *service) adoptProviderIdentity(ctx context.Context, user *domain.User, provider string, profile *oauth.Profile) error {
	updates := map[string]interface{}{
		"provider": provider,
	}
	switch provider {
	case domain.ProviderGoogle:
		user.GoogleID = profile.ProviderID
		updates["google_id"] = profile.ProviderID
	case domain.ProviderMicrosoft:
		user.MicrosoftID = profile.ProviderID
		updates["microsoft_id"] = profile.ProviderID
	}
	user.Provider = provider
	if user.EmailVerifiedAt == nil {
		now := time.Now().UTC()
		user.EmailVerifiedAt = &now
		updates["email_verified_at"] = now
	}
	return s.userRepo.Update(ctx, user.UserID, updates)
}

func (s *service) mirrorAvatar(ctx context.Context, user *domain.User, srcURL string) {
	if s.avatars == nil || srcURL == "" {
		return
	}
	mirrored, err := s.avatars.Mirror(ctx, user.UserID, srcURL)
	if err != nil {
		slog.Warn("failed to mirror avatar", "user_id", user.UserID, "err", err)
		return
	}
	if err := s.userRepo.Update(ctx, user.UserID, map[string]interface{}{"avatar_url": mirrored}); err != nil {
		slog.Warn("failed to store mirrored avatar url", "user_id", user.UserID, "err", err)
		return
	}
	user.AvatarURL = mirrored
}

// newOTPUser builds an identity record for a first-time OTP login: local part
// as display name, a random unusable password placeholder, email unverified.
func newOTPUser(email string) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		UserID:       id.New(),
		Name:         localPart(email),
		PasswordHash: unusablePassword(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// newProviderUser builds an identity record from an OAuth profile. The
// provider vouches for the email, so it is verified from the start.
func newProviderUser(email, provider string, profile *oauth.Profile) *domain.User {
	now := time.Now().UTC()
	u := &domain.User{
		UserID:          id.New(),
		Name:            profile.Name,
		PasswordHash:    unusablePassword(),
		EmailVerifiedAt: &now,
		Provider:        provider,
		AvatarURL:       profile.AvatarURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if u.Name == "" {
		u.Name = localPart(email)
	}
	switch provider {
	case domain.ProviderGoogle:
		u.GoogleID = profile.ProviderID
	case domain.ProviderMicrosoft:
		u.MicrosoftID = profile.ProviderID
	}
	return u
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

func unusablePassword() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(token.Must()), bcrypt.DefaultCost)
	if err != nil {
		return ""
	}
	return string(hash)
}
