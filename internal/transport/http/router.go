package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/otp-auth-service/internal/application/auth"
	"github.com/otp-auth-service/internal/application/notify"
	"github.com/otp-auth-service/internal/application/otp"
	"github.com/otp-auth-service/internal/config"
	"github.com/otp-auth-service/internal/domain"
	"github.com/otp-auth-service/internal/transport/http/handler"
	appmiddleware "github.com/otp-auth-service/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", appmiddleware.CSRFHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	otpTTL := time.Duration(cfg.OTPTTLMinutes) * time.Minute
	otpEngine := otp.NewEngine(deps.OTPRepo, otpTTL)
	dispatcher := notify.NewDispatcher(deps.Mailer, deps.Alerts, deps.Translator, otpTTL)

	svcDeps := auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		SessionRepo: deps.SessionRepo,
		OTPEngine:   otpEngine,
		Dispatcher:  dispatcher,
		Providers:   deps.Providers,
		Cooldown:    deps.Cooldown,
		Avatars:     deps.Avatars,
		BaseURL:     cfg.AppBaseURL,
	}
	if deps.JWTProvider != nil {
		svcDeps.RememberSigner = deps.JWTProvider
	}
	authSvc := auth.NewService(svcDeps)

	secure := cfg.AppEnv == "production"
	var rememberTTL time.Duration
	rememberMw := func(next http.Handler) http.Handler { return next }
	if deps.JWTProvider != nil {
		rememberTTL = deps.JWTProvider.Expiry()
		rememberMw = appmiddleware.Remember(deps.JWTProvider, deps.UserRepo, deps.SessionRepo)
	}

	authH := handler.NewAuthHandler(authSvc, deps.UserRepo, deps.SessionRepo, secure, rememberTTL)
	oauthH := handler.NewOAuthHandler(authSvc, deps.SessionRepo)
	healthH := handler.NewHealthHandler()

	// 5 requests/second, burst of 10 — applied to the OTP endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	r.Route("/auth", func(r chi.Router) {
		r.Use(appmiddleware.Session(deps.SessionRepo, secure))
		r.Use(rememberMw)
		r.Use(appmiddleware.CSRF)

		r.Get("/", authH.Entry)
		r.Get("/login", authH.LoginPage)
		r.Get("/verify", authH.VerifyPage)
		r.With(sensitiveRL.Limit).Post("/send-otp", authH.SendOTP)
		r.With(sensitiveRL.Limit).Post("/resend-otp", authH.ResendOTP)
		r.With(sensitiveRL.Limit).Post("/verify-otp", authH.VerifyOTP)

		r.Get("/google", oauthH.Begin(domain.ProviderGoogle))
		r.Get("/google/callback", oauthH.Callback(domain.ProviderGoogle))
		r.Get("/microsoft", oauthH.Begin(domain.ProviderMicrosoft))
		r.Get("/microsoft/callback", oauthH.Callback(domain.ProviderMicrosoft))

		r.With(appmiddleware.RequireAuth).Post("/logout", authH.Logout)
	})

	r.Get("/v1/health-check/{action}", healthH.Ping)
	r.Post("/v1/health-check/{action}", healthH.Ping)

	return r
}
