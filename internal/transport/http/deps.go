package http

import (
	"context"

	"github.com/otp-auth-service/internal/application/auth"
	"github.com/otp-auth-service/internal/application/notify"
	"github.com/otp-auth-service/internal/application/otp"
	"github.com/otp-auth-service/internal/domain"
	jwtinfra "github.com/otp-auth-service/internal/infrastructure/jwt"
	"github.com/otp-auth-service/internal/infrastructure/oauth"
	"github.com/otp-auth-service/internal/infrastructure/sns"
	"github.com/otp-auth-service/internal/pkg/i18n"
)

// UserRepository is the minimal interface the router requires from the user
// store. It is a superset of what the orchestrator needs because the verify
// page and the remember-me middleware read users directly.
type UserRepository interface {
	auth.UserStore
}

// SessionRepository is the minimal interface the router requires from the
// session store. Get is used by the session middleware; Put and Delete by
// the orchestrator and the flash helpers.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	SessionRepo SessionRepository
	OTPRepo     otp.Store
	Mailer      notify.Mailer
	Alerts      sns.AlertPublisher
	Translator  i18n.Translator
	Providers   []oauth.Provider
	Cooldown    auth.Cooldown
	JWTProvider *jwtinfra.Provider
	Avatars     auth.AvatarMirror
}
