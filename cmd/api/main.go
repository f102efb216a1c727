package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/otp-auth-service/internal/application/auth"
	"github.com/otp-auth-service/internal/config"
	"github.com/otp-auth-service/internal/infrastructure/dynamo"
	jwtinfra "github.com/otp-auth-service/internal/infrastructure/jwt"
	"github.com/otp-auth-service/internal/infrastructure/oauth"
	"github.com/otp-auth-service/internal/infrastructure/redisrate"
	s3infra "github.com/otp-auth-service/internal/infrastructure/s3"
	"github.com/otp-auth-service/internal/infrastructure/smtp"
	"github.com/otp-auth-service/internal/infrastructure/sns"
	"github.com/otp-auth-service/internal/pkg/i18n"
	transporthttp "github.com/otp-auth-service/internal/transport/http"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider backing the remember-me cookie (optional — logins still
	// work without it, they just don't persist past the session).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available, remember-me disabled: %v", err)
	}

	// SNS security-alert publisher (optional — graceful fallback).
	var alerts sns.AlertPublisher
	if p, err := sns.NewPublisher(cfg); err == nil {
		alerts = p
	} else {
		log.Printf("WARN: SNS publisher not available: %v", err)
	}

	// Redis-backed OTP send cooldown; without Redis the cooldown degrades
	// open and only the per-IP limiter throttles.
	var cooldown auth.Cooldown
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cooldown = redisrate.NewCooldown(rdb, time.Duration(cfg.OTPResendCooldownS)*time.Second, 1)
	}

	s3Client := s3infra.NewClient(cfg)

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users, cfg.DynamoTables.UserEmails),
		SessionRepo: dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		OTPRepo:     dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs),
		Mailer:      smtp.NewMailer(cfg),
		Alerts:      alerts,
		Translator:  i18n.Default(),
		Providers: []oauth.Provider{
			oauth.NewGoogle(cfg),
			oauth.NewMicrosoft(cfg),
		},
		Cooldown:    cooldown,
		JWTProvider: jwtProvider,
		Avatars:     s3infra.NewAvatarStore(s3Client, cfg.AvatarBucket),
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
